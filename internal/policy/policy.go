// Package policy loads group entitlements from a YAML file and applies
// them to the directory. Used to bootstrap or reconcile which groups may
// book which rooms, and how far ahead.
package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"room-reservation/internal/storage"
)

// Duration wraps time.Duration so horizons can be written as "48h" or
// "30m" in the policy file.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

type RoomGrant struct {
	Room string `yaml:"room"`
	// How far into the future this group may book the room.
	MaxFuture Duration `yaml:"max_future"`
}

type GroupPolicy struct {
	Name  string      `yaml:"name"`
	Rooms []RoomGrant `yaml:"rooms"`
}

type File struct {
	Groups []GroupPolicy `yaml:"groups"`
}

// Load parses a policy file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}
	return &f, nil
}

// Apply upserts every grant in the file. Groups are created when missing;
// rooms must already exist. Idempotent.
func Apply(ctx context.Context, store storage.DirectoryStore, f *File) error {
	logger := slog.With("component", "policy")

	for _, groupPolicy := range f.Groups {
		group, err := store.GetGroupByName(ctx, groupPolicy.Name)
		if errors.Is(err, storage.ErrNotFound) {
			group = &storage.Group{Name: groupPolicy.Name}
			if err := store.CreateGroup(ctx, group); err != nil {
				return fmt.Errorf("create group %q: %w", groupPolicy.Name, err)
			}
			logger.Info("Created group", "group", group.Name)
		} else if err != nil {
			return fmt.Errorf("resolve group %q: %w", groupPolicy.Name, err)
		}

		for _, grant := range groupPolicy.Rooms {
			room, err := store.GetRoomByName(ctx, grant.Room)
			if err != nil {
				return fmt.Errorf("resolve room %q for group %q: %w", grant.Room, group.Name, err)
			}

			perm := &storage.GroupRoomPermission{
				GroupID:          group.ID,
				RoomID:           room.ID,
				MaxFutureSeconds: int64(time.Duration(grant.MaxFuture) / time.Second),
			}
			if err := store.UpsertPermission(ctx, perm); err != nil {
				return fmt.Errorf("grant room %q to group %q: %w", room.Name, group.Name, err)
			}
			logger.Info("Granted room to group", "group", group.Name, "room", room.Name,
				"max_future", time.Duration(grant.MaxFuture).String())
		}
	}
	return nil
}
