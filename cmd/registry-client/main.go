package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/ruteri/encrypted-ticket-registry/clients"
	"github.com/ruteri/encrypted-ticket-registry/gateway"
	"github.com/ruteri/encrypted-ticket-registry/interfaces"
)

var flagServerAddr *cli.StringFlag = &cli.StringFlag{
	Name:  "server-addr",
	Value: "http://127.0.0.1:8080",
	Usage: "Registry server address to request",
}
var flagCaller *cli.StringFlag = &cli.StringFlag{
	Name:  "caller",
	Usage: "Acting principal address. 40-char hex string, 0x prefix optional",
}
var flagRegistryAddr *cli.StringFlag = &cli.StringFlag{
	Name:  "registry-addr",
	Usage: "Registry address the sealed seat is bound to (create only)",
}
var flagGatewaySeed *cli.StringFlag = &cli.StringFlag{
	Name:  "gateway-seed",
	Usage: "Hex-encoded 32-byte dev platform seed used to seal the seat locally (create only)",
}

func main() {
	app := &cli.App{
		Name:  "registry-client",
		Usage: "Interact with the encrypted ticket registry",
		Flags: []cli.Flag{
			flagServerAddr,
			flagCaller,
		},
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Seal a seat number locally and create a ticket",
				ArgsUsage: "<event-name> <venue> <date> <seat-number>",
				Flags: []cli.Flag{
					flagRegistryAddr,
					flagGatewaySeed,
				},
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 4 {
						return errors.New("expected arguments: <event-name> <venue> <date> <seat-number>")
					}

					client, err := newClient(cCtx)
					if err != nil {
						return err
					}

					seat, err := strconv.ParseUint(cCtx.Args().Get(3), 10, 32)
					if err != nil {
						return fmt.Errorf("invalid seat number: %w", err)
					}

					seedHex := cCtx.String(flagGatewaySeed.Name)
					if seedHex == "" {
						return errors.New("gateway-seed is required to seal the seat")
					}
					seed, err := hex.DecodeString(seedHex)
					if err != nil {
						return fmt.Errorf("invalid gateway-seed: %w", err)
					}

					registryAddr, err := interfaces.NewPrincipalFromHex(cCtx.String(flagRegistryAddr.Name))
					if err != nil {
						return fmt.Errorf("invalid registry-addr: %w", err)
					}

					// The dev platform shares its seed, so sealing happens on
					// the caller's machine just like the real platform SDK
					// would.
					gw, err := gateway.NewSimpleGateway(seed, registryAddr)
					if err != nil {
						return err
					}
					ciphertext, proof, err := gw.SealSeat(uint32(seat), client.Caller)
					if err != nil {
						return err
					}

					id, err := client.CreateTicket(context.Background(),
						cCtx.Args().Get(0), cCtx.Args().Get(1), cCtx.Args().Get(2), ciphertext, proof)
					if err != nil {
						return err
					}

					fmt.Printf("created ticket %d\n", id)
					return nil
				},
			},
			{
				Name:      "get-metadata",
				Usage:     "Print the public metadata of a ticket",
				ArgsUsage: "<id>",
				Action: func(cCtx *cli.Context) error {
					client, id, err := newClientWithID(cCtx)
					if err != nil {
						return err
					}

					md, err := client.Metadata(context.Background(), id)
					if err != nil {
						return err
					}

					fmt.Printf("event: %s\nvenue: %s\ndate: %s\nowner: %s\n", md.EventName, md.Venue, md.Date, md.Owner)
					return nil
				},
			},
			{
				Name:  "count",
				Usage: "Print the number of tickets ever created",
				Action: func(cCtx *cli.Context) error {
					client, err := newClient(cCtx)
					if err != nil {
						return err
					}

					count, err := client.Count(context.Background())
					if err != nil {
						return err
					}

					fmt.Println(count)
					return nil
				},
			},
			{
				Name:      "list-owned",
				Usage:     "List ticket ids owned by a principal",
				ArgsUsage: "<principal>",
				Action: func(cCtx *cli.Context) error {
					client, err := newClient(cCtx)
					if err != nil {
						return err
					}

					principal, err := interfaces.NewPrincipalFromHex(cCtx.Args().First())
					if err != nil {
						return err
					}

					ids, err := client.OwnedTickets(context.Background(), principal)
					if err != nil {
						return err
					}

					for _, id := range ids {
						fmt.Println(id)
					}
					return nil
				},
			},
			{
				Name:      "read-seat-handle",
				Usage:     "Print the opaque seat handle of an owned ticket",
				ArgsUsage: "<id>",
				Action: func(cCtx *cli.Context) error {
					client, id, err := newClientWithID(cCtx)
					if err != nil {
						return err
					}

					handle, err := client.SeatHandle(context.Background(), id)
					if err != nil {
						return err
					}

					fmt.Println(handle)
					return nil
				},
			},
			{
				Name:      "read-lock-handle",
				Usage:     "Print the opaque lock handle of an owned ticket",
				ArgsUsage: "<id>",
				Action: func(cCtx *cli.Context) error {
					client, id, err := newClientWithID(cCtx)
					if err != nil {
						return err
					}

					handle, err := client.LockHandle(context.Background(), id)
					if err != nil {
						return err
					}

					fmt.Println(handle)
					return nil
				},
			},
			{
				Name:      "lock",
				Usage:     "Lock an owned ticket",
				ArgsUsage: "<id>",
				Action: func(cCtx *cli.Context) error {
					client, id, err := newClientWithID(cCtx)
					if err != nil {
						return err
					}
					return client.Lock(context.Background(), id)
				},
			},
			{
				Name:      "unlock",
				Usage:     "Unlock an owned ticket",
				ArgsUsage: "<id>",
				Action: func(cCtx *cli.Context) error {
					client, id, err := newClientWithID(cCtx)
					if err != nil {
						return err
					}
					return client.Unlock(context.Background(), id)
				},
			},
			{
				Name:      "transfer",
				Usage:     "Transfer an owned ticket to a new owner",
				ArgsUsage: "<id> <new-owner>",
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 2 {
						return errors.New("expected arguments: <id> <new-owner>")
					}

					client, id, err := newClientWithID(cCtx)
					if err != nil {
						return err
					}

					newOwner, err := interfaces.NewPrincipalFromHex(cCtx.Args().Get(1))
					if err != nil {
						return fmt.Errorf("invalid new owner: %w", err)
					}

					return client.Transfer(context.Background(), id, newOwner)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newClient(cCtx *cli.Context) (*clients.RegistryClient, error) {
	client := &clients.RegistryClient{
		ServerAddr: cCtx.String(flagServerAddr.Name),
	}

	if caller := cCtx.String(flagCaller.Name); caller != "" {
		principal, err := interfaces.NewPrincipalFromHex(caller)
		if err != nil {
			return nil, fmt.Errorf("invalid caller: %w", err)
		}
		client.Caller = principal
	}

	return client, nil
}

func newClientWithID(cCtx *cli.Context) (*clients.RegistryClient, interfaces.TicketID, error) {
	client, err := newClient(cCtx)
	if err != nil {
		return nil, 0, err
	}

	id, err := strconv.ParseUint(cCtx.Args().First(), 10, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid ticket id: %w", err)
	}

	return client, interfaces.TicketID(id), nil
}
