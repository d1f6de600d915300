package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"room-reservation/internal/storage"
)

var createRoomDescription string

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Manage meeting rooms",
}

var listRoomsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all rooms",
	Run: func(cmd *cobra.Command, args []string) {
		listRoomsCLI(context.Background())
	},
}

var createRoomCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a room",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		createRoomCLI(context.Background(), args[0])
	},
}

func listRoomsCLI(ctx context.Context) {
	rooms, err := provider.ListRooms(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list rooms: %v\n", err)
		os.Exit(1)
	}

	if len(rooms) == 0 {
		fmt.Println("No rooms found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	fmt.Fprintln(w, "--\t----\t-----------")
	for _, room := range rooms {
		desc := ""
		if room.Description != nil {
			desc = *room.Description
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", room.ID, room.Name, desc)
	}
	w.Flush()
}

func createRoomCLI(ctx context.Context, name string) {
	room := &storage.Room{Name: name}
	if createRoomDescription != "" {
		room.Description = &createRoomDescription
	}

	if _, err := provider.GetRoomByName(ctx, name); err == nil {
		fmt.Fprintf(os.Stderr, "A room named %q already exists\n", name)
		os.Exit(1)
	}

	if err := provider.CreateRoom(ctx, room); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create room: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created room %q (id %d)\n", room.Name, room.ID)
}

func init() {
	rootCmd.AddCommand(roomsCmd)
	roomsCmd.AddCommand(listRoomsCmd)
	roomsCmd.AddCommand(createRoomCmd)

	createRoomCmd.Flags().StringVar(&createRoomDescription, "description", "", "room description")
}
