package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/itchyny/gojq"
	"github.com/urfave/cli/v2"

	"github.com/solmint/launchpad/client"
)

func clientCommands() *cli.Command {
	return &cli.Command{
		Name:  "client",
		Usage: "HTTP client commands for interacting with the launchpad service",
		Subcommands: []*cli.Command{
			generateWalletCommand(),
			fundWalletCommand(),
			launchCommand(),
			clientListTokensCommand(),
			clientGetTokenCommand(),
			updateTokenCommand(),
		},
	}
}

// getClient builds an API client from the global flags.
func getClient(c *cli.Context) *client.Client {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only errors to stderr
	}))
	return client.NewClient(c.String("server-url"), c.String("api-key"), nil, logger)
}

func generateWalletCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate-wallet",
		Usage: "Generate a fresh wallet on the server",
		Action: func(c *cli.Context) error {
			cl := getClient(c)

			wallet, err := cl.GenerateWallet(context.Background())
			if err != nil {
				return fmt.Errorf("failed to generate wallet: %w", err)
			}

			if c.Bool("json") {
				return outputJSON(wallet)
			}

			fmt.Printf("ID:              %s\n", wallet.ID)
			fmt.Printf("Public Key:      %s\n", wallet.PublicKey)
			fmt.Printf("Mint Public Key: %s\n", wallet.MintPublicKey)
			fmt.Printf("Required Amount: %.4f SOL\n", wallet.RequiredAmount)
			return nil
		},
	}
}

func fundWalletCommand() *cli.Command {
	return &cli.Command{
		Name:      "fund-wallet",
		Usage:     "Fund a stored wallet from the agent account",
		ArgsUsage: "<wallet-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("requires exactly one argument: wallet id")
			}

			cl := getClient(c)
			walletID := c.Args().First()

			fmt.Fprintf(os.Stderr, "Funding wallet %s (waits for confirmation)...\n", walletID)

			sig, err := cl.FundWallet(context.Background(), walletID)
			if err != nil {
				return fmt.Errorf("failed to fund wallet: %w", err)
			}

			if c.Bool("json") {
				return outputJSON(map[string]string{"signature": sig})
			}

			fmt.Printf("Signature: %s\n", sig)
			return nil
		},
	}
}

func launchCommand() *cli.Command {
	return &cli.Command{
		Name:  "launch",
		Usage: "Launch a token and block until the workflow completes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "wallet-id",
				Aliases:  []string{"w"},
				Usage:    "Stored wallet to launch from",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "name",
				Usage:    "Token name",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "symbol",
				Usage:    "Token ticker symbol",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "description",
				Usage: "Token description",
			},
			&cli.StringFlag{
				Name:  "image-url",
				Usage: "Token image URL",
			},
			&cli.StringFlag{
				Name:  "twitter",
				Usage: "Twitter URL",
			},
			&cli.StringFlag{
				Name:  "telegram",
				Usage: "Telegram URL",
			},
			&cli.StringFlag{
				Name:  "website",
				Usage: "Website URL",
			},
			&cli.StringFlag{
				Name:  "target-wallet",
				Usage: "Wallet recorded as the launch beneficiary (defaults to the spend wallet)",
			},
			&cli.BoolFlag{
				Name:  "buyback",
				Usage: "Request a buy-back purchase after creation",
			},
		},
		Action: func(c *cli.Context) error {
			cl := getClient(c)

			req := client.LaunchRequest{
				WalletID:         c.String("wallet-id"),
				TokenName:        c.String("name"),
				TokenSymbol:      c.String("symbol"),
				TokenDescription: c.String("description"),
				ImageURL:         c.String("image-url"),
				TargetWallet:     c.String("target-wallet"),
			}
			for _, link := range []struct {
				flag string
				dst  **string
			}{
				{"twitter", &req.Twitter},
				{"telegram", &req.Telegram},
				{"website", &req.Website},
			} {
				if v := c.String(link.flag); v != "" {
					value := v
					*link.dst = &value
				}
			}
			if c.IsSet("buyback") {
				buyback := c.Bool("buyback")
				req.Buyback = &buyback
			}

			fmt.Fprintf(os.Stderr, "Launching %s (%s), this can take a few minutes...\n",
				req.TokenName, req.TokenSymbol)

			result, err := cl.Launch(context.Background(), req)
			if err != nil {
				return fmt.Errorf("launch failed: %w", err)
			}

			if c.Bool("json") {
				return outputJSON(result)
			}

			fmt.Printf("Token URL:   %s\n", result.TokenURL)
			fmt.Printf("Token ID:    %s\n", result.TokenID)
			fmt.Printf("Workflow ID: %s\n", result.WorkflowID)
			if result.InitialPriceInSol != nil {
				fmt.Printf("Price (SOL): %.9f\n", *result.InitialPriceInSol)
			} else {
				fmt.Printf("Price (SOL): (unknown)\n")
			}
			if result.Details != "" {
				fmt.Printf("Details:     %s\n", result.Details)
			}
			return nil
		},
	}
}

func clientListTokensCommand() *cli.Command {
	return &cli.Command{
		Name:  "list-tokens",
		Usage: "List token records over the HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Limit number of tokens",
				Value:   50,
			},
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Skip this many tokens",
			},
			&cli.StringSliceFlag{
				Name:    "must-jq",
				Usage:   "jq filter expression that must evaluate to true (can be specified multiple times, all must match)",
				Aliases: []string{"jq"},
			},
		},
		Action: func(c *cli.Context) error {
			cl := getClient(c)

			// Compile jq filters
			jqFilters := c.StringSlice("must-jq")
			compiledJQFilters := make([]*gojq.Code, len(jqFilters))
			for i, filter := range jqFilters {
				query, err := gojq.Parse(filter)
				if err != nil {
					return fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
				}
				compiledJQFilters[i], err = gojq.Compile(query)
				if err != nil {
					return fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
				}
			}

			tokens, err := cl.ListTokens(context.Background(), c.Int("limit"), c.Int("offset"))
			if err != nil {
				return fmt.Errorf("failed to list tokens: %w", err)
			}

			if len(compiledJQFilters) > 0 {
				filtered := make([]*client.Token, 0, len(tokens))
				for _, token := range tokens {
					ok, err := matchesJQFilters(token, compiledJQFilters)
					if err != nil {
						return err
					}
					if ok {
						filtered = append(filtered, token)
					}
				}
				tokens = filtered
			}

			return outputJSON(tokens)
		},
	}
}

// matchesJQFilters reports whether every compiled filter evaluates to a truthy
// value against the token's JSON form.
func matchesJQFilters(token *client.Token, filters []*gojq.Code) (bool, error) {
	raw, err := json.Marshal(token)
	if err != nil {
		return false, fmt.Errorf("failed to marshal token: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false, fmt.Errorf("failed to unmarshal token: %w", err)
	}

	for _, code := range filters {
		iter := code.Run(doc)
		v, ok := iter.Next()
		if !ok {
			return false, nil
		}
		if _, isErr := v.(error); isErr {
			return false, nil
		}
		if !isTruthy(v) {
			return false, nil
		}
	}
	return true, nil
}

// isTruthy follows jq semantics: false and null are falsy, everything else
// is truthy.
func isTruthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	default:
		return true
	}
}

func clientGetTokenCommand() *cli.Command {
	return &cli.Command{
		Name:      "get-token",
		Usage:     "Get one token record over the HTTP API",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("requires exactly one argument: token id")
			}

			cl := getClient(c)
			token, err := cl.GetToken(context.Background(), c.Args().First())
			if err != nil {
				return fmt.Errorf("failed to get token: %w", err)
			}

			return outputJSON(token)
		},
	}
}

func updateTokenCommand() *cli.Command {
	return &cli.Command{
		Name:      "update-token",
		Usage:     "Apply the post-mint patch to a token record",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "token-url",
				Usage:    "pump.fun URL of the minted token",
				Required: true,
			},
			&cli.Float64Flag{
				Name:  "price",
				Usage: "Initial price in SOL",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("requires exactly one argument: token id")
			}

			cl := getClient(c)
			req := client.UpdateTokenRequest{
				TokenURL: c.String("token-url"),
			}
			if c.IsSet("price") {
				price := c.Float64("price")
				req.InitialPriceInSol = &price
			}

			token, err := cl.UpdateToken(context.Background(), c.Args().First(), req)
			if err != nil {
				return fmt.Errorf("failed to update token: %w", err)
			}

			return outputJSON(token)
		},
	}
}
