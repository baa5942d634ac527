package tally

import (
	"github.com/goliatone/go-tally/transport"
)

var (
	_ CommandQueryService = (*Service)(nil)
	_ transport.Service   = (*Service)(nil)
)
