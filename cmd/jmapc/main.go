//go:build !no_psi

// Command jmapc talks to JMAP servers from the shell: it prints the session,
// calls methods and follows push events. See "jmapc --help".
package main

import (
	"context"

	"pkt.systems/psi"
)

func main() {
	psi.Run(func(ctx context.Context) int {
		return submain(ctx)
	})
}
