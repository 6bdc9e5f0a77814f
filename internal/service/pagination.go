package service

import (
	"strconv"

	"github.com/lshigami/polls/internal/dto"
)

// paginate resolves a ?page= value ("" for the first page, a 1-based
// number, or "last"). The first page always exists, even when empty.
func paginate(page string, total int64, size int) (dto.PageDTO, error) {
	numPages := int((total + int64(size) - 1) / int64(size))
	if numPages < 1 {
		numPages = 1
	}

	number := 1
	switch page {
	case "":
	case "last":
		number = numPages
	default:
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 || n > numPages {
			return dto.PageDTO{}, ErrPageNotFound
		}
		number = n
	}

	p := dto.PageDTO{
		Number:      number,
		NumPages:    numPages,
		Total:       total,
		HasPrevious: number > 1,
		HasNext:     number < numPages,
	}
	if p.HasPrevious {
		p.PreviousNumber = number - 1
	}
	if p.HasNext {
		p.NextNumber = number + 1
	}
	return p, nil
}
