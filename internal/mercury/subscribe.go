package mercury

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"pairScope/internal/model"
)

// Subscribe registers interest in one ledger entry with the Mercury backend.
func (c *Client) Subscribe(ctx context.Context, req model.SubscribeRequest) error {
	if strings.TrimSpace(c.cfg.BackendURL) == "" {
		return fmt.Errorf("mercury backend endpoint is required")
	}
	if req.Durability == "" {
		req.Durability = model.DurabilityPersistent
	}

	token, err := c.authToken(ctx)
	if err != nil {
		return err
	}
	if err := c.postEntry(ctx, token, req); err != nil {
		return fmt.Errorf("subscribe %s: %w", req.ContractID, err)
	}
	c.logger.Debug("subscribed", zap.String("contract", req.ContractID), zap.String("key_xdr", req.KeyXdr))
	return nil
}

// SubscribeBatch subscribes every request in order. The returned slice has one slot
// per request, nil where the subscription succeeded. A failure does not stop the batch.
func (c *Client) SubscribeBatch(ctx context.Context, reqs []model.SubscribeRequest) []error {
	errs := make([]error, len(reqs))
	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}
		errs[i] = c.Subscribe(ctx, req)
	}
	return errs
}

func (c *Client) postEntry(ctx context.Context, token string, req model.SubscribeRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal subscription: %w", err)
	}

	url := strings.TrimRight(c.cfg.BackendURL, "/") + "/entry"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build subscription request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
