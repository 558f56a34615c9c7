package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/john/livefeed/internal/config"
	"github.com/john/livefeed/internal/kick"
)

func main() {
	var apiBase string

	cmd := &cobra.Command{
		Use:     "resolve-kick-channels <channel> [channel...]",
		Short:   "Resolve Kick channel slugs to chatroom IDs for the kick section of config.yaml",
		Example: "  resolve-kick-channels paymoneywubby xqc",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolve(cmd.Context(), kick.NewResolver(apiBase), args)
		},
	}
	cmd.Flags().StringVar(&apiBase, "api-base", kick.DefaultAPIBase, "Kick API root")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolve(ctx context.Context, resolver *kick.Resolver, channels []string) error {
	fmt.Printf("Resolving %d Kick channel(s)...\n\n", len(channels))

	var resolved []config.KickChannelConfig
	failed := make(map[string]error)

	for _, channel := range channels {
		reqCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		chatroomID, slug, err := resolver.Resolve(reqCtx, channel)
		cancel()
		if err != nil {
			failed[channel] = err
			continue
		}
		resolved = append(resolved, config.KickChannelConfig{Slug: slug, ChatroomID: chatroomID})
	}

	if len(failed) > 0 {
		fmt.Println("Failed to resolve:")
		fmt.Println("---")
		for slug, err := range failed {
			fmt.Printf("%s: %v\n", slug, err)
		}
		fmt.Println()
	}

	if len(resolved) == 0 {
		return fmt.Errorf("no channels resolved")
	}

	snippet := struct {
		Kick config.KickConfig `yaml:"kick"`
	}{
		Kick: config.KickConfig{Enabled: true, Channels: resolved},
	}
	out, err := yaml.Marshal(snippet)
	if err != nil {
		return fmt.Errorf("marshal config snippet: %w", err)
	}

	fmt.Println("Add this to your config.yaml:")
	fmt.Println("---")
	fmt.Print(string(out))
	return nil
}
