package signal

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/openratchet/signal-go/pkg/signal/securemem"
)

// InMemoryStore is a ProtocolStore backed by maps. It is intended for tests
// and examples; everything is lost when the process exits.
//
// Records are stored serialized, so every load returns an independent
// resource the caller owns.
type InMemoryStore struct {
	mu sync.Mutex

	identity       *IdentityKeyPair
	registrationID uint32

	sessions       map[string][]byte
	identities     map[string][]byte // serialized public keys
	preKeys        map[uint32][]byte
	signedPreKeys  map[uint32][]byte
	kyberPreKeys   map[uint32][]byte
	kyberUsed      map[uint32]bool
	senderKeys     map[string][]byte
}

// NewInMemoryStore builds a store around the local identity. The store
// takes ownership of the pair.
func NewInMemoryStore(identity *IdentityKeyPair, registrationID uint32) (*InMemoryStore, error) {
	if identity == nil {
		return nil, wrap("NewInMemoryStore", ErrNullHandle)
	}
	return &InMemoryStore{
		identity:       identity,
		registrationID: registrationID,
		sessions:       make(map[string][]byte),
		identities:     make(map[string][]byte),
		preKeys:        make(map[uint32][]byte),
		signedPreKeys:  make(map[uint32][]byte),
		kyberPreKeys:   make(map[uint32][]byte),
		kyberUsed:      make(map[uint32]bool),
		senderKeys:     make(map[string][]byte),
	}, nil
}

func (s *InMemoryStore) LoadSession(ctx context.Context, address ProtocolAddress) (*SessionRecord, error) {
	s.mu.Lock()
	data, ok := s.sessions[address.String()]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return DeserializeSessionRecord(data)
}

func (s *InMemoryStore) StoreSession(ctx context.Context, address ProtocolAddress, record *SessionRecord) error {
	data, err := record.Serialize()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sessions[address.String()] = data
	s.mu.Unlock()
	return nil
}

func (s *InMemoryStore) GetIdentityKeyPair(ctx context.Context) (*IdentityKeyPair, error) {
	return s.identity, nil
}

func (s *InMemoryStore) GetLocalRegistrationID(ctx context.Context) (uint32, error) {
	return s.registrationID, nil
}

func (s *InMemoryStore) SaveIdentity(ctx context.Context, address ProtocolAddress, identity *PublicKey) (bool, error) {
	data, err := identity.Serialize()
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.identities[address.String()]
	s.identities[address.String()] = data
	return had && !securemem.ConstantTimeEquals(prev, data), nil
}

func (s *InMemoryStore) IsTrustedIdentity(ctx context.Context, address ProtocolAddress, identity *PublicKey, direction Direction) (bool, error) {
	data, err := identity.Serialize()
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	prev, had := s.identities[address.String()]
	s.mu.Unlock()
	if !had {
		// Trust on first use.
		return true, nil
	}
	return securemem.ConstantTimeEquals(prev, data), nil
}

func (s *InMemoryStore) GetIdentity(ctx context.Context, address ProtocolAddress) (*PublicKey, error) {
	s.mu.Lock()
	data, ok := s.identities[address.String()]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return DeserializePublicKey(data)
}

func (s *InMemoryStore) LoadPreKey(ctx context.Context, id uint32) (*PreKeyRecord, error) {
	s.mu.Lock()
	data, ok := s.preKeys[id]
	s.mu.Unlock()
	if !ok {
		return nil, errorf("InMemoryStore.LoadPreKey", KindInvalidArgument, "no pre-key with id %d", id)
	}
	return DeserializePreKeyRecord(data)
}

func (s *InMemoryStore) StorePreKey(ctx context.Context, id uint32, record *PreKeyRecord) error {
	data, err := record.Serialize()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.preKeys[id] = data
	s.mu.Unlock()
	return nil
}

func (s *InMemoryStore) RemovePreKey(ctx context.Context, id uint32) error {
	s.mu.Lock()
	delete(s.preKeys, id)
	s.mu.Unlock()
	return nil
}

func (s *InMemoryStore) LoadSignedPreKey(ctx context.Context, id uint32) (*SignedPreKeyRecord, error) {
	s.mu.Lock()
	data, ok := s.signedPreKeys[id]
	s.mu.Unlock()
	if !ok {
		return nil, errorf("InMemoryStore.LoadSignedPreKey", KindInvalidArgument, "no signed pre-key with id %d", id)
	}
	return DeserializeSignedPreKeyRecord(data)
}

func (s *InMemoryStore) StoreSignedPreKey(ctx context.Context, id uint32, record *SignedPreKeyRecord) error {
	data, err := record.Serialize()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.signedPreKeys[id] = data
	s.mu.Unlock()
	return nil
}

func (s *InMemoryStore) LoadKyberPreKey(ctx context.Context, id uint32) (*KyberPreKeyRecord, error) {
	s.mu.Lock()
	data, ok := s.kyberPreKeys[id]
	s.mu.Unlock()
	if !ok {
		return nil, errorf("InMemoryStore.LoadKyberPreKey", KindInvalidArgument, "no kyber pre-key with id %d", id)
	}
	return DeserializeKyberPreKeyRecord(data)
}

func (s *InMemoryStore) StoreKyberPreKey(ctx context.Context, id uint32, record *KyberPreKeyRecord) error {
	data, err := record.Serialize()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.kyberPreKeys[id] = data
	s.mu.Unlock()
	return nil
}

func (s *InMemoryStore) MarkKyberPreKeyUsed(ctx context.Context, id uint32) error {
	s.mu.Lock()
	s.kyberUsed[id] = true
	s.mu.Unlock()
	return nil
}

// KyberPreKeyUsed reports whether MarkKyberPreKeyUsed was called for id.
func (s *InMemoryStore) KyberPreKeyUsed(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kyberUsed[id]
}

func senderKeyIndex(sender ProtocolAddress, distributionID uuid.UUID) string {
	return sender.String() + "/" + distributionID.String()
}

func (s *InMemoryStore) LoadSenderKey(ctx context.Context, sender ProtocolAddress, distributionID uuid.UUID) (*SenderKeyRecord, error) {
	s.mu.Lock()
	data, ok := s.senderKeys[senderKeyIndex(sender, distributionID)]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return DeserializeSenderKeyRecord(data)
}

func (s *InMemoryStore) StoreSenderKey(ctx context.Context, sender ProtocolAddress, distributionID uuid.UUID, record *SenderKeyRecord) error {
	data, err := record.Serialize()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.senderKeys[senderKeyIndex(sender, distributionID)] = data
	s.mu.Unlock()
	return nil
}
