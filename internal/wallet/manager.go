package wallet

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Errors.
const (
	ErrWalletNotFound = errors.Sentinel("wallet not found")
	ErrWalletExists   = errors.Sentinel("wallet already exists")
	ErrInvalidKey     = errors.Sentinel("invalid private key")
)

// Wallet is a named signing account. The key itself lives in the keystore.
type Wallet struct {
	Name      string         `json:"name"`
	Address   common.Address `json:"address"`
	KeyRef    string         `json:"key_ref"`
	CreatedAt string         `json:"created_at"`
}

// Store persists wallet metadata.
type Store interface {
	Load() ([]*Wallet, error)
	Save([]*Wallet) error
}

// Manager handles wallet CRUD.
type Manager struct {
	store   Store
	keys    KeystoreBackend
	wallets map[string]*Wallet
	loaded  bool
}

// NewManager creates a wallet manager over store and keys.
func NewManager(store Store, keys KeystoreBackend) *Manager {
	return &Manager{store: store, keys: keys, wallets: make(map[string]*Wallet)}
}

// Import derives the address of hexKey, stores the key and records the
// wallet under name.
func (m *Manager) Import(name, hexKey string) (*Wallet, error) {
	if err := m.load(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.New("wallet name must not be empty")
	}
	if _, exists := m.wallets[name]; exists {
		return nil, errors.WithDetails(ErrWalletExists, "wallet", name)
	}

	hexKey = normaliseHexKey(hexKey)
	privKey, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, errors.WrapIf(ErrInvalidKey, err.Error())
	}

	ref, err := m.keys.Store(name, hexKey)
	if err != nil {
		return nil, err
	}
	w := &Wallet{
		Name:      name,
		Address:   crypto.PubkeyToAddress(privKey.PublicKey),
		KeyRef:    ref,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	m.wallets[name] = w
	return w, m.persist()
}

// Get returns a wallet by name.
func (m *Manager) Get(name string) (*Wallet, error) {
	if err := m.load(); err != nil {
		return nil, err
	}
	w, ok := m.wallets[name]
	if !ok {
		return nil, errors.WithDetails(ErrWalletNotFound, "wallet", name)
	}
	return w, nil
}

// Remove deletes a wallet and its stored key.
func (m *Manager) Remove(name string) error {
	w, err := m.Get(name)
	if err != nil {
		return err
	}
	if err := m.keys.Delete(w.KeyRef); err != nil {
		return errors.Wrap(err, "deleting key")
	}
	delete(m.wallets, name)
	return m.persist()
}

// List returns all wallets sorted by name.
func (m *Manager) List() ([]*Wallet, error) {
	if err := m.load(); err != nil {
		return nil, err
	}
	out := make([]*Wallet, 0, len(m.wallets))
	for _, w := range m.wallets {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Resolve returns the wallet called name, or when name is empty the only
// wallet if exactly one exists.
func (m *Manager) Resolve(name string) (*Wallet, error) {
	if name != "" {
		return m.Get(name)
	}
	all, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(all) == 1 {
		return all[0], nil
	}
	return nil, errors.WithDetails(ErrWalletNotFound, "reason", "no wallet given and no single default")
}

func (m *Manager) load() error {
	if m.loaded {
		return nil
	}
	wallets, err := m.store.Load()
	if err != nil {
		return err
	}
	for _, w := range wallets {
		m.wallets[w.Name] = w
	}
	m.loaded = true
	return nil
}

func (m *Manager) persist() error {
	wallets := make([]*Wallet, 0, len(m.wallets))
	for _, w := range m.wallets {
		wallets = append(wallets, w)
	}
	sort.Slice(wallets, func(i, j int) bool { return wallets[i].Name < wallets[j].Name })
	return m.store.Save(wallets)
}

func normaliseHexKey(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}

// --- in-memory store ---

type MemStore struct {
	wallets []*Wallet
}

func (s *MemStore) Load() ([]*Wallet, error) {
	return s.wallets, nil
}

func (s *MemStore) Save(wallets []*Wallet) error {
	s.wallets = wallets
	return nil
}

// --- JSON file store ---

// JSONStore persists wallets to a JSON file.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSON-backed wallet store.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Load() ([]*Wallet, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var wallets []*Wallet
	if err := json.Unmarshal(data, &wallets); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", s.path)
	}
	return wallets, nil
}

func (s *JSONStore) Save(wallets []*Wallet) error {
	data, err := json.MarshalIndent(wallets, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
