/*
 * Copyright 2024 Zedge, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */
package main

import (
	"context"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/mitchellh/colorstring"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/kubecd/regprune/pkg/config"
	"github.com/kubecd/regprune/pkg/orchestrator"
	"github.com/kubecd/regprune/pkg/registry"
	"github.com/kubecd/regprune/pkg/retain"
)

var (
	cleanPolicyFile string
	cleanOutput     string
)

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "delete images eligible under the configured retention policy",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cleanOutput != "text" && cleanOutput != "yaml" {
			return errors.Errorf("unknown output format %q", cleanOutput)
		}
		configs, err := makeCleanConfigs()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return errors.Wrap(err, "loading AWS configuration")
		}
		ecrClient := ecr.NewFromConfig(awsCfg)
		ecsClient := ecs.NewFromConfig(awsCfg)
		for _, cfg := range configs {
			if err := cleanRepository(ctx, cfg, ecrClient, ecsClient); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringP("repository", "r", "", "repository to clean (default $REPO_TO_CLEAN)")
	cleanCmd.Flags().Bool("dry-run", false, "only report what would be deleted (default $DRY_RUN)")
	cleanCmd.Flags().StringVar(&cleanPolicyFile, "policy-file", "", "YAML policy file covering several repositories")
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "text", `output format: "text" or "yaml"`)
	_ = viper.BindPFlag("repo_to_clean", cleanCmd.Flags().Lookup("repository"))
	_ = viper.BindPFlag("dry_run", cleanCmd.Flags().Lookup("dry-run"))
}

func makeCleanConfigs() ([]*config.Config, error) {
	if cleanPolicyFile == "" {
		cfg, err := config.FromViper(viper.GetViper())
		if err != nil {
			return nil, err
		}
		return []*config.Config{cfg}, nil
	}
	policy, err := config.NewPolicyFromFile(cleanPolicyFile)
	if err != nil {
		return nil, err
	}
	return policy.Configs(config.RunDefaultsFromViper(viper.GetViper()))
}

func cleanRepository(ctx context.Context, cfg *config.Config, ecrClient *ecr.Client, ecsClient *ecs.Client) error {
	regClient := registry.NewClient(ecrClient, cfg.Repository)
	pipeline := &retain.Pipeline{
		Config:  cfg,
		Images:  regClient,
		Active:  orchestrator.NewClient(ecsClient, cfg.APIDelay, cfg.Concurrency),
		Deleter: regClient,
	}
	if cfg.DryRun {
		plan, err := pipeline.Plan(ctx)
		if err != nil {
			return err
		}
		return printPlan(cfg, plan)
	}
	outcome, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}
	return printOutcome(cfg, outcome)
}

func printPlan(cfg *config.Config, plan []string) error {
	if cleanOutput == "yaml" {
		return writeYaml(map[string]interface{}{
			"repository":       cfg.Repository,
			"wouldDelete":      plan,
			"wouldDeleteCount": len(plan),
		})
	}
	_, _ = colorstring.Printf("[yellow]%s: would delete %d images (dry run)\n", cfg.Repository, len(plan))
	for _, imageURL := range plan {
		_, _ = colorstring.Printf("[yellow]  %s\n", imageURL)
	}
	return nil
}

func printOutcome(cfg *config.Config, outcome retain.Outcome) error {
	if cleanOutput == "yaml" {
		return writeYaml(map[string]interface{}{
			"repository": cfg.Repository,
			"outcome":    outcome,
		})
	}
	_, _ = colorstring.Printf("[green]%s: deleted %d images\n", cfg.Repository, outcome.Count)
	if verbosity > 0 {
		for _, imageRef := range outcome.Deleted {
			_, _ = colorstring.Printf("[green]  %s\n", imageRef)
		}
	}
	for _, failure := range outcome.Failures {
		_, _ = colorstring.Printf("[red]  failed: %s: %s\n", failure.ImageRef, failure.Reason)
	}
	if len(outcome.Failures) > 0 {
		fmt.Printf("%s: %d images could not be deleted\n", cfg.Repository, len(outcome.Failures))
	}
	return nil
}

func writeYaml(doc interface{}) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
