package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/DRSN-tech/ordering-backend/internal/domain"
	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/DRSN-tech/ordering-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// Response: единый конверт ответа API.
type Response struct {
	Success      bool    `json:"success"`
	ErrorMessage *string `json:"errorMessage"`
	Data         any     `json:"data"`
}

func NewErrorResponse(message string) *Response {
	return &Response{Success: false, ErrorMessage: &message}
}

func NewSuccessResponse(data any) *Response {
	return &Response{Success: true, Data: data}
}

// ToHTTPResponse сопоставляет ошибку с HTTP-статусом и сообщением для клиента.
// Сообщения инфраструктурных ошибок наружу не отдаются.
func ToHTTPResponse(err error) (int, string) {
	var vErr *e.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusUnprocessableEntity, vErr.Message
	}

	var domainErr *e.Error
	if errors.As(err, &domainErr) {
		switch domainErr.Kind {
		case e.KindNotFound:
			return http.StatusNotFound, domainErr.Message
		case e.KindConflict:
			return http.StatusBadRequest, domainErr.Message
		}
	}

	return http.StatusInternalServerError, e.ErrInternalServerError.Error()
}

// WriteError пишет конверт ошибки. 4xx логируются как предупреждения,
// 500 уже залогированы исполнителем в канал apis.
func WriteError(w http.ResponseWriter, logger logger.Logger, err error) {
	code, msg := ToHTTPResponse(err)
	if code < http.StatusInternalServerError {
		logger.Warnf("%d %s", code, err.Error())
	}

	WriteJSON(w, code, NewErrorResponse(msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, NewSuccessResponse(data))
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// parseID читает {id} из пути. Нечисловой id означает несуществующий ресурс.
func parseID(r *http.Request, notFound error) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, notFound
	}

	return id, nil
}

// pageRequest собирает параметры списка из query. Нечисловые значения заменяются умолчаниями.
func pageRequest(r *http.Request) domain.PageRequest {
	q := r.URL.Query()

	itemsPerPage, _ := strconv.Atoi(q.Get("itemsPerPage"))
	page, _ := strconv.Atoi(q.Get("page"))

	return domain.NewPageRequest(itemsPerPage, page, q.Get("sortBy"), q.Get("sortDirection"))
}
