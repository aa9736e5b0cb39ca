// SPDX-License-Identifier: MPL-2.0

package main

import cmd "promptscript-cli/cmd/prs"

func main() {
	cmd.Execute()
}
