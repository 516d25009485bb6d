package common

import (
	"fmt"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
)

func DefaultParamEnricher() boa.ParamEnricher {
	return boa.ParamEnricherCombine(
		boa.ParamEnricherBool,
		boa.ParamEnricherName,
		boa.ParamEnricherShort,
	)
}

// ExitOnError prints "<cmd>: <err>" to stderr and exits 1 if err is non-nil.
func ExitOnError(cmd string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
	os.Exit(1)
}
