package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/solmint/launchpad/service/db"
)

func initSchemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create the database schema",
		Action: func(c *cli.Context) error {
			pool, closer, err := getPool(c)
			if err != nil {
				return err
			}
			defer closer()

			if err := db.InitSchema(context.Background(), pool); err != nil {
				return fmt.Errorf("failed to initialize schema: %w", err)
			}

			fmt.Fprintln(os.Stderr, "Schema initialized")
			return nil
		},
	}
}

func listTokensCommand() *cli.Command {
	return &cli.Command{
		Name:    "list-tokens",
		Usage:   "List token records, newest first",
		Aliases: []string{"ls"},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "status",
				Aliases: []string{"s"},
				Usage:   "Filter by status (draft, funded, minted, priced)",
			},
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
		},
		Action: func(c *cli.Context) error {
			store, closer, err := getStore(c)
			if err != nil {
				return err
			}
			defer closer()

			tokens, err := store.ListTokens(context.Background(), int32(c.Int("limit")), int32(c.Int("offset")))
			if err != nil {
				return fmt.Errorf("failed to list tokens: %w", err)
			}

			// Filter by status if specified
			statusFilter := c.String("status")
			if statusFilter != "" {
				filtered := make([]*db.Token, 0)
				for _, t := range tokens {
					if t.Status == statusFilter {
						filtered = append(filtered, t)
					}
				}
				tokens = filtered
			}

			if c.Bool("json") {
				return outputJSON(tokens)
			}

			// Pretty table output
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSYMBOL\tSTATUS\tTOKEN URL\tPRICE (SOL)\tCREATED")
			for _, token := range tokens {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					token.ID,
					token.Symbol,
					token.Status,
					formatOptionalString(token.TokenURL),
					formatOptionalPrice(token.InitialPriceSOL),
					token.CreatedAt.Format(time.RFC3339),
				)
			}
			w.Flush()

			fmt.Fprintf(os.Stderr, "\nTotal: %d tokens\n", len(tokens))
			return nil
		},
	}
}

func getTokenCommand() *cli.Command {
	return &cli.Command{
		Name:      "get-token",
		Usage:     "Get token record details",
		Aliases:   []string{"get"},
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("requires exactly one argument: token id")
			}

			id := c.Args().First()
			store, closer, err := getStore(c)
			if err != nil {
				return err
			}
			defer closer()

			token, err := store.GetToken(context.Background(), id)
			if err != nil {
				return fmt.Errorf("failed to get token: %w", err)
			}

			if c.Bool("json") {
				return outputJSON(token)
			}

			// Pretty output
			fmt.Printf("ID:                %s\n", token.ID)
			fmt.Printf("Name:              %s\n", token.Name)
			fmt.Printf("Symbol:            %s\n", token.Symbol)
			fmt.Printf("Status:            %s\n", token.Status)
			fmt.Printf("Target Wallet:     %s\n", token.TargetWallet)
			fmt.Printf("Funding Wallet:    %s\n", token.FundingWallet)
			fmt.Printf("Funding Signature: %s\n", token.FundingSignature)
			fmt.Printf("SOL Amount:        %.4f\n", token.SolAmount)
			fmt.Printf("Token URL:         %s\n", formatOptionalString(token.TokenURL))
			fmt.Printf("Initial Price:     %s\n", formatOptionalPrice(token.InitialPriceSOL))
			fmt.Printf("Created:           %s\n", token.CreatedAt.Format(time.RFC3339))
			fmt.Printf("Updated:           %s\n", token.UpdatedAt.Format(time.RFC3339))

			return nil
		},
	}
}

// Helper function to connect to database
func getPool(c *cli.Context) (*pgxpool.Pool, func(), error) {
	dbURL := c.String("database-url")
	if dbURL == "" && c.App != nil {
		// Try environment variable directly if flag not found
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		return nil, nil, fmt.Errorf("database-url is required (set DATABASE_URL env var or use --database-url)")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, func() { pool.Close() }, nil
}

func getStore(c *cli.Context) (*db.Store, func(), error) {
	pool, closer, err := getPool(c)
	if err != nil {
		return nil, nil, err
	}
	return db.NewStore(pool), closer, nil
}

// Helper function to output JSON
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatOptionalString(s *string) string {
	if s != nil && *s != "" {
		return *s
	}
	return "(none)"
}

func formatOptionalPrice(p *float64) string {
	if p != nil {
		return fmt.Sprintf("%.9f", *p)
	}
	return "(unknown)"
}
