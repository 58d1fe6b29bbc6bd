package flag

import "github.com/thirukguru/image-release/model"

type service struct{}

// Service is the interface for CLI flag service.
type Service interface {
	GetParsedFlags(args []string) (model.Flags, error)
}
