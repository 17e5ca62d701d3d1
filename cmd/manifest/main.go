/*
Command manifest edits hierarchical XML manifests of projects, tasks and notes.

Every invocation operates on one manifest file, given with --file:

	manifest -f todo.xml add project "Q3 release"
	manifest -f todo.xml add task "Write changelog" --parent a3f --due 2026-07-01
	manifest -f todo.xml edit b5e8 --status done
	manifest -f todo.xml list --tree

Elements are addressed by id, by unique id prefix, or by a path query such
as "//task[@status='active']".

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
