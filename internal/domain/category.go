package domain

import "time"

// NameMaxLength: ограничение длины имени категории и продукта (в символах).
const NameMaxLength = 255

// Category описывает категорию меню. Продукты заполняются только при чтении.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Products  []Product `json:"products"`
}

func NewCategory(name string) *Category {
	return &Category{
		Name:     name,
		Products: []Product{},
	}
}

// CategorySortFields: поля, по которым разрешена сортировка списка категорий.
var CategorySortFields = SortFields{"id", "name", "createdAt", "updatedAt"}
