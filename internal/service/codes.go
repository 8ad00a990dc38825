package service

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

const (
	productCodePrefix  = "PROD"
	supplierCodePrefix = "FOR"
)

// nextCode returns prefix-NNN where NNN is one past the highest number seen
// among codes carrying the prefix. Codes derive from the maximum, not the
// count, so deleting an entity never causes reuse.
func nextCode(codes []string, prefix string, width int) string {
	highest := 0
	for _, code := range codes {
		if !strings.HasPrefix(code, prefix+"-") {
			continue
		}
		n, ok := digitsOf(code[len(prefix)+1:])
		if ok && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s-%0*d", prefix, width, highest+1)
}

func digitsOf(raw string) (int, bool) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s *Service) NextProductCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextProductCodeLocked()
}

func (s *Service) nextProductCodeLocked() string {
	codes := make([]string, 0, len(s.state.Products))
	for _, p := range s.state.Products {
		codes = append(codes, p.Cod)
	}
	return nextCode(codes, productCodePrefix, 4)
}

// NextEmployeeCode previews the code an employee created under roleID would
// get. It returns an empty string for unknown roles.
func (s *Service) NextEmployeeCode(roleID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextEmployeeCodeLocked(roleID)
}

func (s *Service) nextEmployeeCodeLocked(roleID string) string {
	idx := s.roleIndexLocked(roleID)
	if idx < 0 {
		return ""
	}
	codes := make([]string, 0, len(s.state.Employees))
	for _, e := range s.state.Employees {
		codes = append(codes, e.Cod)
	}
	return nextCode(codes, s.state.Roles[idx].Prefix, 3)
}

func (s *Service) NextSupplierCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextSupplierCodeLocked()
}

func (s *Service) nextSupplierCodeLocked() string {
	codes := make([]string, 0, len(s.state.Suppliers))
	for _, sp := range s.state.Suppliers {
		codes = append(codes, sp.Cod)
	}
	return nextCode(codes, supplierCodePrefix, 3)
}
