// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package main

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/ChainSafe/stategc/dot/state"
	"github.com/urfave/cli"
)

var ErrDatabaseNotEmpty = errors.New("database already holds state roots")

var seedCommand = cli.Command{
	Action: seedAction,
	Name:   "seed",
	Usage:  "Fill an empty database with a generated state history, for development",
	Flags:  []cli.Flag{WidthFlag, UpdatesFlag, LeavesPerUpdateFlag, SeedFlag},
}

func seedAction(ctx *cli.Context) (err error) {
	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	setupLogger(config.Log)

	db, err := openDatabase(config.Database)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	roots := state.NewRootStore(db)
	if count := roots.Count(); count > 0 {
		return fmt.Errorf("%w: %d roots", ErrDatabaseNotEmpty, count)
	}

	generator, err := state.NewGenerator(state.NewCommitter(db), ctx.Int(WidthFlag.Name))
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}

	_, err = generator.Genesis()
	if err != nil {
		return err
	}

	random := rand.New(rand.NewSource(ctx.Int64(SeedFlag.Name))) //nolint:gosec
	updates := ctx.Int(UpdatesFlag.Name)
	for i := 0; i < updates; i++ {
		_, err = generator.Update(random, ctx.Int(LeavesPerUpdateFlag.Name))
		if err != nil {
			return err
		}
	}

	root := generator.Root()
	nodes := state.NewNodeStore(db).CountNodes(0)
	successColour.Fprintf(ctx.App.Writer, "seeded %d nodes up to root %s at tx order %d\n",
		nodes, root.Hash, root.TxOrder)
	return nil
}
