// Package paginator режет упорядоченную последовательность на страницы
// фиксированного размера.
//
// Номер страницы снизу ограничивается единицей, запрос страницы за
// последней даёт пустую страницу без ошибки. Пустая последовательность
// состоит из одной пустой страницы.
package paginator

import "strconv"

// DefaultPageSize используется, если передан неположительный размер страницы.
const DefaultPageSize = 10

// Page - одна страница последовательности.
type Page[T any] struct {
	Items      []T
	Number     int
	PageSize   int
	TotalPages int
	TotalItems int
}

func (p Page[T]) HasNext() bool {
	return p.Number < p.TotalPages
}

func (p Page[T]) HasPrevious() bool {
	return p.Number > 1
}

// Paginate возвращает страницу requestedPage последовательности items.
func Paginate[T any](items []T, pageSize, requestedPage int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if requestedPage < 1 {
		requestedPage = 1
	}

	total := len(items)
	pages := (total + pageSize - 1) / pageSize
	if pages == 0 {
		pages = 1
	}

	page := Page[T]{
		Items:      []T{},
		Number:     requestedPage,
		PageSize:   pageSize,
		TotalPages: pages,
		TotalItems: total,
	}

	// Сравниваем номера страниц до умножения: (requestedPage-1)*pageSize
	// переполняется для очень больших номеров
	if requestedPage > pages || total == 0 {
		return page
	}
	start := (requestedPage - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	page.Items = items[start:end:end]
	return page
}

// ParsePage разбирает номер страницы из query-параметра. Пустое,
// нечисловое или неположительное значение даёт первую страницу.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
