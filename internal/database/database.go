package database

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"voltshop_back_end/internal/config"

	"github.com/gocql/gocql"
)

// ScyllaManager garde une session par keyspace (produits, commandes)
type ScyllaManager struct {
	cfg      config.ScyllaConfig
	sessions map[string]*gocql.Session
	mu       sync.Mutex
}

func NewScyllaManager(cfg config.ScyllaConfig) *ScyllaManager {
	return &ScyllaManager{cfg: cfg, sessions: make(map[string]*gocql.Session)}
}

func (sm *ScyllaManager) cluster(keyspace string) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(sm.cfg.Hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.SerialConsistency = gocql.LocalSerial
	cluster.Timeout = sm.cfg.Timeout
	cluster.NumConns = sm.cfg.NumConns
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = 1 * time.Second
	if sm.cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: sm.cfg.Username,
			Password: sm.cfg.Password,
		}
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster
}

// Session retourne (ou ouvre) la session du keyspace
func (sm *ScyllaManager) Session(keyspace string) (*gocql.Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, ok := sm.sessions[keyspace]; ok && !session.Closed() {
		return session, nil
	}

	session, err := sm.cluster(keyspace).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("création session pour %s: %w", keyspace, err)
	}
	sm.sessions[keyspace] = session
	log.Printf("✅ Nouvelle session ScyllaDB pour keyspace '%s' (hôtes: %s)", keyspace, strings.Join(sm.cfg.Hosts, ","))
	return session, nil
}

func (sm *ScyllaManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for keyspace, session := range sm.sessions {
		session.Close()
		log.Printf("🔌 Session ScyllaDB fermée pour keyspace '%s'", keyspace)
	}
	sm.sessions = make(map[string]*gocql.Session)
}

// ScyllaStore implémente Store sur les deux keyspaces
type ScyllaStore struct {
	manager  *ScyllaManager
	products *gocql.Session
	orders   *gocql.Session
}

func NewScyllaStore(cfg config.ScyllaConfig) (*ScyllaStore, error) {
	manager := NewScyllaManager(cfg)
	products, err := manager.Session(cfg.ProductsKeyspace)
	if err != nil {
		return nil, err
	}
	orders, err := manager.Session(cfg.OrdersKeyspace)
	if err != nil {
		manager.Close()
		return nil, err
	}
	return &ScyllaStore{manager: manager, products: products, orders: orders}, nil
}

func (s *ScyllaStore) Close() {
	s.manager.Close()
}

// Open choisit le driver selon STORE_DRIVER
func Open(cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case "memory":
		log.Println("⚠️ STORE_DRIVER=memory : les données ne survivront pas au redémarrage")
		return NewMemoryStore(), nil
	case "scylla", "":
		store, err := NewScyllaStore(cfg.Scylla)
		if err != nil {
			return nil, err
		}
		log.Println("✅ ScyllaDB connecté")
		return store, nil
	}
	return nil, fmt.Errorf("STORE_DRIVER inconnu: %q", cfg.StoreDriver)
}
