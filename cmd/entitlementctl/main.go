// Command entitlementctl inspeciona a configuração do gate e opera a cota de
// buscas de visitantes guardada no Redis.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
