// SPDX-License-Identifier: MPL-2.0

// repoforge builds repository contents into container images and runs them.
package main

import cmd "repoforge/cmd/repoforge"

func main() {
	cmd.Execute()
}
