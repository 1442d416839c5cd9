// Package routing implements the cluster-topology collaborator spec.md
// places out of scope as a driver-core feature ("transparent retry of
// application-level business logic" and routing-table maintenance are
// explicitly excluded). The teacher driver already carried one
// (routing.go/routing_driver.go); this package keeps it as a trimmed,
// optional collaborator a caller can consult before picking which
// bolt:// address to hand to bolt.NewDriver, rather than something
// the session or connection pool depends on internally.
package routing

import (
	"context"
	"fmt"
	"strings"

	bolt "github.com/mindstand/golang-bolt-driver"
	"github.com/mindstand/golang-bolt-driver/errors"
)

const clusterOverviewQuery = "call dbms.cluster.overview()"

// Role classifies a cluster member's position, parsed from the "role"
// column of dbms.cluster.overview().
type Role int

const (
	RoleLeader Role = iota
	RoleFollower
	RoleReadReplica
	RoleWriteReplica
	RoleUnknown
)

func roleFromString(s string) Role {
	switch strings.ToLower(s) {
	case "leader":
		return RoleLeader
	case "follower":
		return RoleFollower
	case "read_replica":
		return RoleReadReplica
	case "write_replica":
		return RoleWriteReplica
	default:
		return RoleUnknown
	}
}

// Member is one row of dbms.cluster.overview().
type Member struct {
	ID        string
	Addresses []string
	Database  string
	Groups    []string
	Role      Role
}

// ClusterConnectionConfig groups cluster members by role, as returned by
// a RoutingTableProvider's Refresh.
type ClusterConnectionConfig struct {
	Leaders       []Member
	Followers     []Member
	ReadReplicas  []Member
	WriteReplicas []Member
}

// RoutingTableProvider discovers cluster topology. Nothing in session
// or bolttx depends on this - it's a caller-side seam for clustered
// deployments, not part of the driver core's connection contract.
type RoutingTableProvider interface {
	Refresh(ctx context.Context) (*ClusterConnectionConfig, error)
}

// clusterOverviewProvider is the concrete RoutingTableProvider: it runs
// dbms.cluster.overview() through an already-open Conn, the same query
// the teacher's getClusterInfo used, now driven through the message
// engine instead of a raw RUN/PULL_ALL pair.
type clusterOverviewProvider struct {
	conn *bolt.Conn
}

// NewClusterOverviewProvider builds a RoutingTableProvider that queries
// cluster topology through conn.
func NewClusterOverviewProvider(conn *bolt.Conn) RoutingTableProvider {
	return &clusterOverviewProvider{conn: conn}
}

func (p *clusterOverviewProvider) Refresh(ctx context.Context) (*ClusterConnectionConfig, error) {
	rows, err := p.conn.QueryNeo(ctx, clusterOverviewQuery, nil)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, _, err := rows.All()
	if err != nil {
		return nil, err
	}

	cfg := &ClusterConnectionConfig{}
	for _, row := range records {
		member, err := parseRow(row)
		if err != nil {
			return nil, err
		}
		switch member.Role {
		case RoleLeader:
			cfg.Leaders = append(cfg.Leaders, member)
		case RoleFollower:
			cfg.Followers = append(cfg.Followers, member)
		case RoleWriteReplica:
			cfg.WriteReplicas = append(cfg.WriteReplicas, member)
		default:
			cfg.ReadReplicas = append(cfg.ReadReplicas, member)
		}
	}
	return cfg, nil
}

// parseRow parses one row of dbms.cluster.overview(): id, addresses,
// role, groups, database, in that order.
func parseRow(row []interface{}) (Member, error) {
	if len(row) != 5 {
		return Member{}, fmt.Errorf("invalid number of columns for %q: got %d, want 5", clusterOverviewQuery, len(row))
	}

	id, ok := row[0].(string)
	if !ok {
		return Member{}, errors.NewClient("unable to parse cluster member id into string")
	}
	addresses, err := toStringSlice(row[1])
	if err != nil {
		return Member{}, errors.NewClient("unable to parse cluster member addresses: %v", err)
	}
	role, ok := row[2].(string)
	if !ok {
		return Member{}, errors.NewClient("unable to parse cluster member role into string")
	}
	groups, err := toStringSlice(row[3])
	if err != nil {
		return Member{}, errors.NewClient("unable to parse cluster member groups: %v", err)
	}
	database, ok := row[4].(string)
	if !ok {
		return Member{}, errors.NewClient("unable to parse cluster member database into string")
	}

	return Member{
		ID:        id,
		Addresses: addresses,
		Database:  database,
		Groups:    groups,
		Role:      roleFromString(role),
	}, nil
}

func toStringSlice(v interface{}) ([]string, error) {
	raw, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected []interface{}, got %T", v)
	}
	out := make([]string, len(raw))
	for i, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected string element, got %T", item)
		}
		out[i] = s
	}
	return out, nil
}
