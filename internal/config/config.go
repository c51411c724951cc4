// Package config loads the static tables the quota engine reads at
// process start: capacity-group totals, ticket-option base capacities,
// the business-type to channel-label map, and the business directory.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/domain"
)

type Config struct {
	groups        map[string]domain.CapacityGroup
	ticketOptions map[string]domain.TicketOptionCapacity
	channels      domain.ChannelMap
	businesses    map[string]domain.Business
}

type fileConfig struct {
	CapacityGroups []struct {
		Name          string `yaml:"name"`
		TotalCapacity int    `yaml:"total_capacity"`
		Sold          int    `yaml:"sold"`
	} `yaml:"capacity_groups"`
	TicketOptions []struct {
		Group  string `yaml:"group"`
		Option string `yaml:"option"`
		Total  int    `yaml:"total"`
		Sold   int    `yaml:"sold"`
	} `yaml:"ticket_options"`
	Channels   map[string]string `yaml:"channels"`
	Businesses []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
		Type string `yaml:"type"`
	} `yaml:"businesses"`
}

// Load reads and validates the YAML configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse builds a Config from raw YAML.
func Parse(raw []byte) (*Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		groups:        make(map[string]domain.CapacityGroup, len(fc.CapacityGroups)),
		ticketOptions: make(map[string]domain.TicketOptionCapacity, len(fc.TicketOptions)),
		channels:      make(domain.ChannelMap, len(fc.Channels)),
		businesses:    make(map[string]domain.Business, len(fc.Businesses)),
	}

	for _, g := range fc.CapacityGroups {
		if g.Name == "" {
			return nil, fmt.Errorf("capacity group with empty name")
		}
		if g.TotalCapacity < 0 || g.Sold < 0 || g.Sold > g.TotalCapacity {
			return nil, fmt.Errorf("capacity group %q: invalid totals", g.Name)
		}
		cfg.groups[g.Name] = domain.CapacityGroup{
			Name:          g.Name,
			TotalCapacity: g.TotalCapacity,
			Sold:          g.Sold,
		}
	}

	for _, o := range fc.TicketOptions {
		if _, ok := cfg.groups[o.Group]; !ok {
			return nil, fmt.Errorf("ticket option %q references unknown group %q", o.Option, o.Group)
		}
		if o.Total < 0 || o.Sold < 0 || o.Sold > o.Total {
			return nil, fmt.Errorf("ticket option %q/%q: invalid totals", o.Group, o.Option)
		}
		cfg.ticketOptions[optionKey(o.Group, o.Option)] = domain.TicketOptionCapacity{
			Group:  o.Group,
			Option: o.Option,
			Total:  o.Total,
			Sold:   o.Sold,
		}
	}

	for typ, label := range fc.Channels {
		bt := domain.BusinessType(typ)
		if !bt.Valid() {
			return nil, fmt.Errorf("channel map references unknown business type %q", typ)
		}
		if label == "" {
			return nil, fmt.Errorf("channel map: empty label for type %q", typ)
		}
		cfg.channels[bt] = label
	}

	for _, b := range fc.Businesses {
		if b.ID == "" || b.Name == "" {
			return nil, fmt.Errorf("business entry missing id or name")
		}
		bt := domain.BusinessType(b.Type)
		if !bt.Valid() {
			return nil, fmt.Errorf("business %q: unknown type %q", b.Name, b.Type)
		}
		cfg.businesses[b.ID] = domain.Business{ID: b.ID, Name: b.Name, Type: bt}
	}

	return cfg, nil
}

func optionKey(group, option string) string {
	return group + "|" + option
}

// Group returns the static configuration for a capacity group.
func (c *Config) Group(name string) (domain.CapacityGroup, bool) {
	g, ok := c.groups[name]
	return g, ok
}

// TicketOption returns the base capacity of one ticket option.
func (c *Config) TicketOption(group, option string) (domain.TicketOptionCapacity, bool) {
	o, ok := c.ticketOptions[optionKey(group, option)]
	return o, ok
}

// Channels returns the business-type to channel-label map.
func (c *Config) Channels() domain.ChannelMap {
	return c.channels
}

// BusinessByID looks a business up, returning false when unknown.
func (c *Config) BusinessByID(id string) (domain.Business, bool) {
	b, ok := c.businesses[id]
	return b, ok
}
