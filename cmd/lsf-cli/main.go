package main

import (
	"lsfassist-backend/cmd/lsf-cli/commands"
	"lsfassist-backend/lib/osutil"
	"lsfassist-backend/lib/telemetry"
)

func main() {
	ctx := osutil.SignalContext()

	telemetry.SetupFromEnv(ctx, "lsf-cli")
	telemetry.InitSlog(true)
	telemetry.InstrumentPerfStats(ctx)

	commands.ExecuteContext(ctx)
}
