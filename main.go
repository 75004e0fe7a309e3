// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/themecheck/tgmpalint/cmd/tgmpalint"

func main() {
	cmd.Execute()
}
