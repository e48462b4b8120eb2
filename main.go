// SPDX-License-Identifier: MPL-2.0

package main

import cmd "psforge/cmd/psforge"

func main() {
	cmd.Execute()
}
