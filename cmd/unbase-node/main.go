package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/unbase/unbase/index"
	"github.com/unbase/unbase/memo"
	"github.com/unbase/unbase/network"
	"github.com/unbase/unbase/slab"
	"github.com/unbase/unbase/view"
)

func main() {
	fmt.Println("unbase node starting...")

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	transport := network.NewSimulatorTransport(logger)
	net := network.NewNetwork(transport)

	homeAgent := slab.NewSlabAgent(net, memo.SimulatorAddress(), slab.DefaultConfig(), logger)
	peerAgent := slab.NewSlabAgent(net, memo.SimulatorAddress(), slab.DefaultConfig(), logger)
	homeAgent.AddPeer(peerAgent.SelfRef())
	peerAgent.AddPeer(homeAgent.SelfRef())
	fmt.Println("slab agents started:", homeAgent.ID(), peerAgent.ID())

	home := view.NewContext(homeAgent, net, view.DefaultConfig(), logger)
	peerView := view.NewContext(peerAgent, net, view.DefaultConfig(), logger)

	alice := home.AddTestSubject(memo.Record, map[string]string{"name": "alice", "role": "engineer"})
	fmt.Println("wrote subject:", alice)

	root := index.New(home, index.DefaultDepth)
	if err := root.Insert(1234, alice); err != nil {
		fmt.Println("index insert failed:", err)
		os.Exit(1)
	}
	net.SeedRootIndex(home.GetRelevantSubjectHead(root.Root()))

	if found, ok := root.Get(1234); ok {
		fmt.Println("looked up alice via index:", found == alice)
	}

	v, err := peerView.GetSubjectByID(alice)
	if err != nil {
		fmt.Println("peer failed to resolve subject:", err)
		os.Exit(1)
	}
	if v == nil {
		fmt.Println("peer could not yet resolve subject")
	} else {
		fmt.Println("peer resolved subject values:", v.Values)
	}

	if updated, err := home.Compact(); err == nil {
		fmt.Println("compaction rewrote subjects:", updated)
	}

	fmt.Println("unbase node demo complete.")
}
