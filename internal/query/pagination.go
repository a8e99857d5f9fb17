package query

// Pagination describes the page window a list response covers. NextPage and
// PrevPage are omitted from JSON when the respective page does not exist.
type Pagination struct {
	Page          int  `json:"page"`
	Limit         int  `json:"limit"`
	NumberOfPages int  `json:"numberOfPages"`
	NextPage      *int `json:"nextPage,omitempty"`
	PrevPage      *int `json:"prevPage,omitempty"`
}

// Paginate derives pagination metadata from the total record count and the
// Spec's page/limit. NextPage exists iff page*limit < total; PrevPage exists
// iff page > 1.
func (s Spec) Paginate(total int64) Pagination {
	p := Pagination{
		Page:          s.Page,
		Limit:         s.Limit,
		NumberOfPages: int((total + int64(s.Limit) - 1) / int64(s.Limit)),
	}
	if int64(s.Page)*int64(s.Limit) < total {
		next := s.Page + 1
		p.NextPage = &next
	}
	if s.Page > 1 {
		prev := s.Page - 1
		p.PrevPage = &prev
	}
	return p
}
