// internal/ports/scanner.go
package ports

import (
	"fmt"

	"github.com/tamzrod/modbus-sensorlink/internal/event"
)

// Scanner turns raw enumeration into a PortSet.
type Scanner struct {
	lister  Lister
	exclude []string
}

func NewScanner(l Lister, exclude []string) *Scanner {
	return &Scanner{lister: l, exclude: append([]string(nil), exclude...)}
}

// Scan enumerates, drops excluded identifiers and sorts.
func (s *Scanner) Scan() (event.PortSet, error) {
	names, err := s.lister.List()
	if err != nil {
		return nil, fmt.Errorf("enumerate ports: %w", err)
	}
	return event.NewPortSet(names, s.exclude...), nil
}
