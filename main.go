// SPDX-License-Identifier: MPL-2.0

package main

import cmd "modstack/cmd/modstack"

func main() {
	cmd.Execute()
}
