package log_test

import (
	"log/slog"
	"os"

	"github.com/ardnew/tagmount/log"
)

func Example_textFormat() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatText),
		log.WithTimeLayout("none"),
		log.WithPretty(false),
	)

	logger.Info("mounted", slog.String("tag", "todo"), slog.Int("id", 1))
	// Output:
	// level=INFO msg=mounted tag=todo id=1
}
