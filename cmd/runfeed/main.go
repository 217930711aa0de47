// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// runfeed is a command-line client for following, resuming and replaying
// task runs over the run service's event stream.
package main

func main() {
	Execute()
}
