package state

const defaultPageSize = 20

// Pagination descrive la pagina corrente di una lista.
type Pagination struct {
	Page  int `json:"page"`
	Size  int `json:"size"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPagination parte dalla prima pagina con la dimensione di default.
func NewPagination() Pagination {
	return Pagination{Page: 1, Size: defaultPageSize}
}

// WithTotal ricalcola il numero di pagine e riporta Page nel range.
func (p Pagination) WithTotal(total int) Pagination {
	if p.Size <= 0 {
		p.Size = defaultPageSize
	}
	p.Total = total
	p.Pages = (total + p.Size - 1) / p.Size
	if p.Page > p.Pages {
		p.Page = p.Pages
	}
	if p.Page < 1 {
		p.Page = 1
	}
	return p
}

// WithSize cambia la dimensione e torna alla prima pagina.
func (p Pagination) WithSize(size int) Pagination {
	p.Size = size
	p.Page = 1
	return p.WithTotal(p.Total)
}

// Next avanza di una pagina se possibile.
func (p Pagination) Next() Pagination {
	if p.Page < p.Pages {
		p.Page++
	}
	return p
}

// Prev torna indietro di una pagina se possibile.
func (p Pagination) Prev() Pagination {
	if p.Page > 1 {
		p.Page--
	}
	return p
}

// Window ritorna gli indici [start,end) della pagina corrente.
func (p Pagination) Window() (start, end int) {
	if p.Size <= 0 || p.Total == 0 {
		return 0, 0
	}
	start = (p.Page - 1) * p.Size
	end = start + p.Size
	if end > p.Total {
		end = p.Total
	}
	return start, end
}

// Page ritorna la porzione di items visibile nella pagina corrente.
func Page[T any](items []T, p Pagination) []T {
	start, end := p.WithTotal(len(items)).Window()
	return items[start:end]
}
