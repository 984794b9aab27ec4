package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/prototype/internal/document"
)

const prettyIndent = "  "

// Run loads all prototypes and writes the document as JSON to the output.
func (a *App) Run(ctx context.Context) error {
	a.logger.Debug("App.Run method started.")

	reg, err := a.Load(ctx)
	if err != nil {
		return err
	}

	indent := ""
	if a.config.Pretty {
		indent = prettyIndent
	}
	out, err := document.Encode(reg.Document(), indent)
	if err != nil {
		return fmt.Errorf("failed to encode prototypes: %w", err)
	}
	if _, err := fmt.Fprintln(a.outW, string(out)); err != nil {
		return fmt.Errorf("failed to write prototypes: %w", err)
	}

	a.logger.Info("Prototypes loaded.", "count", reg.Len())
	a.logger.Debug("App.Run method finished.")
	return nil
}
