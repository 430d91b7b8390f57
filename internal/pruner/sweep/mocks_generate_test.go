// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package sweep

//go:generate mockgen -destination=mocks_test.go -package=$GOPACKAGE . NodeStore,StaleIndex,RecycleBin
//go:generate mockgen -destination=mock_batch_test.go -package=$GOPACKAGE github.com/ChainSafe/stategc/internal/database Batch
//go:generate mockgen -destination=mock_marker_test.go -package=$GOPACKAGE github.com/ChainSafe/stategc/internal/pruner/marker Marker
