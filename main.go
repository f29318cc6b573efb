// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/kasbuild/kas/cmd/kas"

func main() {
	cmd.Execute()
}
