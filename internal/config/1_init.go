package config

import (
	"context"
	"fmt"
	"runtime"
)

func init() {
	logger.SetLevel(ParseLogLevel(StringValue("LOGLEVEL")))

	LogDebug(context.Background(), fmt.Sprintf("techtrends config.init(): arch: %v", runtime.GOOS))
}
