package extraction

import (
	"context"

	"go.uber.org/zap"
)

// FailoverClient tries each client in order and moves to the next one only
// when the failure is retryable. Validation failures are returned as is so
// the user sees why their answer was refused.
type FailoverClient struct {
	clients []Client
	logger  *zap.Logger
}

func NewFailoverClient(logger *zap.Logger, clients ...Client) *FailoverClient {
	if logger == nil {
		logger = zap.L()
	}
	list := make([]Client, 0, len(clients))
	for _, c := range clients {
		if c != nil {
			list = append(list, c)
		}
	}
	return &FailoverClient{clients: list, logger: logger.Named("extraction")}
}

func (f *FailoverClient) Extract(ctx context.Context, req Request) (*Response, error) {
	if len(f.clients) == 0 {
		return nil, &Error{Code: CodeConfiguration, Message: "No extraction client is configured."}
	}
	var last error
	for i, c := range f.clients {
		res, err := c.Extract(ctx, req)
		if err == nil {
			return res, nil
		}
		last = err
		ee := AsError(err)
		if !ee.Retryable() || ctx.Err() != nil {
			return nil, ee
		}
		f.logger.Warn("extraction client failed, trying next",
			zap.Int("client", i),
			zap.String("code", string(ee.Code)),
			zap.Error(err))
	}
	return nil, AsError(last)
}
