package services

import (
	"context"
	"fmt"
	"io"

	"budget/internal/log"
)

// Notifier surfaces the outcome of user-initiated operations.
type Notifier interface {
	Success(ctx context.Context, message string)
	Failure(ctx context.Context, message string, err error)
}

// LogNotifier reports outcomes through the structured logger.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Discard()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Success(ctx context.Context, message string) {
	n.logger.InfoContext(ctx, message, log.FieldSuccess, true)
}

func (n *LogNotifier) Failure(ctx context.Context, message string, err error) {
	n.logger.WarnContext(ctx, message, log.FieldSuccess, false, log.FieldError, err)
}

// WriterNotifier prints one line per outcome, for terminal use.
type WriterNotifier struct {
	w io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Success(_ context.Context, message string) {
	fmt.Fprintln(n.w, message)
}

func (n *WriterNotifier) Failure(_ context.Context, message string, err error) {
	if err == nil {
		fmt.Fprintln(n.w, "error: "+message)
		return
	}
	fmt.Fprintf(n.w, "error: %s: %v\n", message, err)
}

type nopNotifier struct{}

func (nopNotifier) Success(context.Context, string)        {}
func (nopNotifier) Failure(context.Context, string, error) {}
