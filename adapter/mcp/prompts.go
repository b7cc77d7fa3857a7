package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

func userPrompt(description, text string) *mcp.PromptResult {
	return &mcp.PromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{{
			Role:    string(mcp.RoleUser),
			Content: mcp.TextContent{Type: "text", Text: text},
		}},
	}
}

const collectDueTemplate = `Collect the subscription charges that are due for %s.

1. List due subscriptions with the subscription.due tool, filtered by initiator.
2. For each one, call payment.make with a compensation no larger than the charge.
3. Report which charges were collected and which were rejected, with the reason
   (not_due, expired, transfer_failed, unauthorized).

Do not retry a rejected charge within the same period.`

const subscriptionReviewText = `Review my subscriptions. Please:

1. Read beaver://subscriptions for the current list
2. For each active subscription, fetch its product with product.get and its
   receipts with payment.list
3. Check my token balance and the custody allowance with token.balance

Summarize what I pay per period, when the next charges fall, and whether my
balance and allowance cover them. Suggest subscriptions I could terminate.`

// RegisterPrompts registers the keeper and subscriber workflows.
func RegisterPrompts(srv *mcp.Server, _ ToolDependencies) error {
	if srv == nil {
		return errors.New("mcp: server is required")
	}

	srv.Prompt("collect_due").
		Description("Walk through collecting every charge that has fallen due for an initiator.").
		Handler(func(_ context.Context, args map[string]string) (*mcp.PromptResult, error) {
			initiator := args["initiator"]
			if initiator == "" {
				initiator = "the server's caller"
			}
			return userPrompt("Collect due charges", fmt.Sprintf(collectDueTemplate, initiator)), nil
		})

	srv.Prompt("subscription_review").
		Description("Review a subscriber's subscriptions, upcoming charges and payment history.").
		Handler(func(context.Context, map[string]string) (*mcp.PromptResult, error) {
			return userPrompt("Subscription review", subscriptionReviewText), nil
		})

	return nil
}
