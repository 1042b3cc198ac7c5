// ════════════════════════════════════════════════════════════════════════════════════════════════
// Kernel Ping-Pong
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: memlab
// Component: Cross-Process Round-Trip Benchmark
//
// Usage:
//   pingpong [client|server|cleanup] [mq|shm]
//
//   server   answers pings until killed (or until a quit message)
//   client   sends constants.PingPongMessages pings, checks every pong, and
//            prints "ok" with the elapsed time
//   cleanup  unlinks every queue and region name (default mode)
//
// Exit codes:
//   0 success, 1 bad arguments or setup failure, 2 transport failure
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"errors"
	"os"

	"memlab/constants"
	"memlab/debug"
	"memlab/ipc"
	"memlab/timing"
	"memlab/utils"
)

const usage = "usage: pingpong [client|server|cleanup] [mq|shm]"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) > 2 {
		debug.DropMessage("USAGE", usage)
		return 1
	}
	mode, kindName := "cleanup", "mq"
	if len(args) > 0 {
		mode = args[0]
	}
	if len(args) > 1 {
		kindName = args[1]
	}
	kind, err := ipc.ParseKind(kindName)
	if err != nil {
		debug.DropError("USAGE", err)
		return 1
	}

	switch mode {
	case "client":
		return client(kind)
	case "server":
		return server(kind)
	case "cleanup":
		if err := ipc.Cleanup(ipc.DefaultNames); err != nil {
			debug.DropError("CLEANUP", err)
			return 1
		}
		return 0
	}
	debug.DropMessage("USAGE", usage)
	return 1
}

func client(kind ipc.Kind) int {
	e, err := ipc.Dial(kind, ipc.Client, ipc.DefaultNames)
	if err != nil {
		debug.DropError("SETUP", err)
		return 1
	}
	defer e.Close()

	tm := timing.Start()
	if err := ipc.PingPong(e, constants.PingPongMessages); err != nil {
		debug.DropError("error", err)
		return exitCode(err)
	}
	debug.DropMessage("ok", utils.Itoa(constants.PingPongMessages)+" round trips over "+kind.String()+
		" in "+utils.Seconds(tm.Duration()))
	return 0
}

func server(kind ipc.Kind) int {
	e, err := ipc.Dial(kind, ipc.Server, ipc.DefaultNames)
	if err != nil {
		debug.DropError("SETUP", err)
		return 1
	}
	defer e.Close()

	debug.DropMessage("SERVE", kind.String())
	if err := ipc.Serve(e); err != nil {
		debug.DropError("error", err)
		return exitCode(err)
	}
	return 0
}

func exitCode(err error) int {
	if errors.Is(err, ipc.ErrTransport) {
		return 2
	}
	return 1
}
