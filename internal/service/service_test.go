package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tmasplus/fleet-admin/internal/logger"
	"github.com/tmasplus/fleet-admin/internal/models"
	"github.com/tmasplus/fleet-admin/internal/pagination"
	"github.com/tmasplus/fleet-admin/internal/storage"
	"github.com/tmasplus/fleet-admin/internal/store"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, fields ...logger.Field)    {}
func (nopLogger) Error(msg string, fields ...logger.Field)   {}
func (nopLogger) Warning(msg string, fields ...logger.Field) {}

// memStore is an in-memory stand-in for the postgres repositories, good
// enough to drive the service layer in tests.
type memStore struct {
	mu            sync.Mutex
	users         map[uuid.UUID]*models.User
	cars          map[uuid.UUID]*models.Car
	codes         map[uuid.UUID]*models.ReferralCode
	referrals     map[uuid.UUID]*models.Referral
	accounts      map[uuid.UUID]*models.AuthAccount
	wallet        []*models.WalletHistory
	notifications map[uuid.UUID]*models.Notification
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[uuid.UUID]*models.User{},
		cars:          map[uuid.UUID]*models.Car{},
		codes:         map[uuid.UUID]*models.ReferralCode{},
		referrals:     map[uuid.UUID]*models.Referral{},
		accounts:      map[uuid.UUID]*models.AuthAccount{},
		notifications: map[uuid.UUID]*models.Notification{},
	}
}

func (m *memStore) User() store.IUserStorage                 { return &memUsers{m} }
func (m *memStore) Car() store.ICarStorage                   { return &memCars{m} }
func (m *memStore) Referral() store.IReferralStorage         { return &memReferrals{m} }
func (m *memStore) Auth() store.IAuthStorage                 { return &memAuth{m} }
func (m *memStore) Wallet() store.IWalletStorage             { return &memWallet{m} }
func (m *memStore) Notification() store.INotificationStorage { return &memNotifications{m} }

type memUsers struct{ m *memStore }

func (s *memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if u, ok := s.m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memUsers) GetByAuthID(_ context.Context, authID uuid.UUID) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.users {
		if u.AuthID != nil && *u.AuthID == authID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memUsers) GetByMobile(_ context.Context, mobile string) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.users {
		if u.Mobile == mobile {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memUsers) Create(_ context.Context, user *models.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	copied := *user
	s.m.users[user.ID] = &copied
	return nil
}

func (s *memUsers) Update(_ context.Context, id uuid.UUID, updates map[string]interface{}) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for key, val := range updates {
		switch key {
		case "approved":
			u.Approved = val.(bool)
		case "blocked":
			u.Blocked = val.(bool)
		case "driver_active_status":
			u.DriverActiveStatus = val.(bool)
		case "wallet_balance":
			u.WalletBalance = val.(float64)
		case "license_number":
			str := val.(string)
			u.LicenseNumber = &str
		case "license_image":
			str := val.(string)
			u.LicenseImage = &str
		case "license_image_back":
			str := val.(string)
			u.LicenseImageBack = &str
		case "verify_id_image":
			str := val.(string)
			u.VerifyIDImage = &str
		case "verify_id_image_bk":
			str := val.(string)
			u.VerifyIDImageBk = &str
		}
	}
	u.UpdatedAt = time.Now()
	copied := *u
	return &copied, nil
}

func (s *memUsers) HardDelete(_ context.Context, id uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.m.users, id)
	return nil
}

func (s *memUsers) ListDrivers(_ context.Context, filters store.DriverFilters, p pagination.Params) ([]models.User, int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var matched []models.User
	for _, u := range s.m.users {
		if u.UserType != models.UserTypeDriver {
			continue
		}
		if filters.Approved != nil && u.Approved != *filters.Approved {
			continue
		}
		if filters.Blocked != nil && u.Blocked != *filters.Blocked {
			continue
		}
		if filters.City != "" && (u.City == nil || *u.City != filters.City) {
			continue
		}
		if filters.Search != "" {
			term := strings.ToLower(filters.Search)
			hay := strings.ToLower(u.FirstName + " " + u.LastName + " " + u.Email + " " + u.Mobile)
			if !strings.Contains(hay, term) {
				continue
			}
		}
		matched = append(matched, *u)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	start := p.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + p.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *memUsers) DriverStats(_ context.Context) (*store.DriverStats, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stats := &store.DriverStats{}
	for _, u := range s.m.users {
		if u.UserType != models.UserTypeDriver {
			continue
		}
		stats.Total++
		switch {
		case u.Blocked:
			stats.Blocked++
		case u.Approved:
			stats.Approved++
		default:
			stats.Pending++
		}
		if u.DriverActiveStatus {
			stats.Active++
		}
	}
	return stats, nil
}

func (s *memUsers) DriverCities(_ context.Context) ([]string, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	seen := map[string]bool{}
	for _, u := range s.m.users {
		if u.UserType == models.UserTypeDriver && u.City != nil && *u.City != "" {
			seen[*u.City] = true
		}
	}
	cities := make([]string, 0, len(seen))
	for city := range seen {
		cities = append(cities, city)
	}
	sort.Strings(cities)
	return cities, nil
}

type memCars struct{ m *memStore }

func (s *memCars) GetByID(_ context.Context, id uuid.UUID) (*models.Car, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if c, ok := s.m.cars[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memCars) GetByDriver(_ context.Context, driverID uuid.UUID) ([]models.Car, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var cars []models.Car
	for _, c := range s.m.cars {
		if c.DriverID != nil && *c.DriverID == driverID {
			cars = append(cars, *c)
		}
	}
	sort.Slice(cars, func(i, j int) bool {
		return cars[i].CreatedAt.Before(cars[j].CreatedAt)
	})
	return cars, nil
}

func (s *memCars) GetByPlate(_ context.Context, plate string) (*models.Car, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, c := range s.m.cars {
		if c.Plate == plate {
			copied := *c
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memCars) List(_ context.Context, filters store.CarFilters, p pagination.Params) ([]models.Car, int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var matched []models.Car
	for _, c := range s.m.cars {
		if filters.DriverID != nil && (c.DriverID == nil || *c.DriverID != *filters.DriverID) {
			continue
		}
		if filters.IsActive != nil && c.IsActive != *filters.IsActive {
			continue
		}
		matched = append(matched, *c)
	}
	total := int64(len(matched))
	start := p.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + p.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *memCars) Create(_ context.Context, car *models.Car) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if car.ID == uuid.Nil {
		car.ID = uuid.New()
	}
	car.CreatedAt = time.Now()
	copied := *car
	s.m.cars[car.ID] = &copied
	return nil
}

func (s *memCars) Update(_ context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Car, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c, ok := s.m.cars[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for key, val := range updates {
		switch key {
		case "is_active":
			c.IsActive = val.(bool)
		case "driver_id":
			c.DriverID = val.(*uuid.UUID)
		case "features":
			c.Features = val.(datatypes.JSON)
		case "soat_expiry_date":
			t := val.(time.Time)
			c.SoatExpiryDate = &t
		case "tecnomecanica_expiry_date":
			t := val.(time.Time)
			c.TecnomecanicaExpiryDate = &t
		case "card_prop_image":
			str := val.(string)
			c.CardPropImage = &str
		case "card_prop_image_back":
			str := val.(string)
			c.CardPropImageBack = &str
		case "soat_image":
			str := val.(string)
			c.SoatImage = &str
		case "tecnomecanica_image":
			str := val.(string)
			c.TecnomecanicaImage = &str
		case "camara_comercio_image":
			str := val.(string)
			c.CamaraComercioImage = &str
		}
	}
	c.UpdatedAt = time.Now()
	copied := *c
	return &copied, nil
}

func (s *memCars) HardDelete(_ context.Context, id uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.cars[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.m.cars, id)
	return nil
}

func (s *memCars) ExpiringDocuments(_ context.Context, before time.Time) ([]models.Car, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var cars []models.Car
	for _, c := range s.m.cars {
		expiring := (c.SoatExpiryDate != nil && !c.SoatExpiryDate.After(before)) ||
			(c.TecnomecanicaExpiryDate != nil && !c.TecnomecanicaExpiryDate.After(before))
		if expiring {
			cars = append(cars, *c)
		}
	}
	return cars, nil
}

func (s *memCars) Stats(_ context.Context) (*store.CarStats, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stats := &store.CarStats{ByServiceType: map[models.ServiceType]int64{}}
	for _, c := range s.m.cars {
		stats.Total++
		if c.IsActive {
			stats.Active++
		}
		if c.ServiceType != nil {
			stats.ByServiceType[*c.ServiceType]++
		}
	}
	return stats, nil
}

type memReferrals struct{ m *memStore }

func (s *memReferrals) GetCodeByDriver(_ context.Context, driverID uuid.UUID) (*models.ReferralCode, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, rc := range s.m.codes {
		if rc.DriverID == driverID {
			copied := *rc
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memReferrals) GetActiveCode(_ context.Context, code string) (*models.ReferralCode, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, rc := range s.m.codes {
		if rc.ReferralCode == code && rc.IsActive {
			copied := *rc
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memReferrals) CodeExists(_ context.Context, code string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, rc := range s.m.codes {
		if rc.ReferralCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *memReferrals) CreateCode(_ context.Context, rc *models.ReferralCode) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if rc.ID == uuid.Nil {
		rc.ID = uuid.New()
	}
	copied := *rc
	s.m.codes[rc.ID] = &copied
	return nil
}

func (s *memReferrals) UpdateCode(_ context.Context, id uuid.UUID, updates map[string]interface{}) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	rc, ok := s.m.codes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, val := range updates {
		switch key {
		case "total_referrals":
			rc.TotalReferrals = val.(int)
		case "is_active":
			rc.IsActive = val.(bool)
		}
	}
	return nil
}

func (s *memReferrals) GetReferralByID(_ context.Context, id uuid.UUID) (*models.Referral, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if ref, ok := s.m.referrals[id]; ok {
		copied := *ref
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memReferrals) GetByReferredDriver(_ context.Context, referredDriverID uuid.UUID) (*models.Referral, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, ref := range s.m.referrals {
		if ref.ReferredDriverID == referredDriverID {
			copied := *ref
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memReferrals) CreateReferral(_ context.Context, ref *models.Referral) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if ref.ID == uuid.Nil {
		ref.ID = uuid.New()
	}
	ref.ReferredAt = time.Now()
	copied := *ref
	s.m.referrals[ref.ID] = &copied
	return nil
}

func (s *memReferrals) UpdateReferral(_ context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Referral, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	ref, ok := s.m.referrals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for key, val := range updates {
		switch key {
		case "status":
			ref.Status = val.(models.ReferralStatus)
		case "reward_claimed":
			ref.RewardClaimed = val.(bool)
		}
	}
	copied := *ref
	return &copied, nil
}

func (s *memReferrals) ListByReferrer(_ context.Context, referrerID uuid.UUID, filters store.ReferralFilters, p pagination.Params) ([]models.Referral, int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var matched []models.Referral
	for _, ref := range s.m.referrals {
		if ref.ReferrerID != referrerID {
			continue
		}
		if filters.Status != "" && string(ref.Status) != filters.Status {
			continue
		}
		if filters.RewardClaimed != nil && ref.RewardClaimed != *filters.RewardClaimed {
			continue
		}
		matched = append(matched, *ref)
	}
	total := int64(len(matched))
	start := p.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + p.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *memReferrals) StatsByReferrer(_ context.Context, referrerID uuid.UUID) (*store.ReferralStats, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stats := &store.ReferralStats{}
	for _, ref := range s.m.referrals {
		if ref.ReferrerID != referrerID {
			continue
		}
		stats.Total++
		switch ref.Status {
		case models.ReferralPending:
			stats.Pending++
		case models.ReferralCompleted:
			stats.Completed++
		case models.ReferralCancelled:
			stats.Cancelled++
		}
		if ref.RewardClaimed {
			stats.RewardsClaimed++
		}
	}
	return stats, nil
}

type memAuth struct{ m *memStore }

func (s *memAuth) GetByEmail(_ context.Context, email string) (*models.AuthAccount, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, acc := range s.m.accounts {
		if acc.Email == email {
			copied := *acc
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memAuth) Create(_ context.Context, acc *models.AuthAccount) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, existing := range s.m.accounts {
		if existing.Email == acc.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if acc.ID == uuid.Nil {
		acc.ID = uuid.New()
	}
	copied := *acc
	s.m.accounts[acc.ID] = &copied
	return nil
}

func (s *memAuth) Delete(_ context.Context, id uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.accounts[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.m.accounts, id)
	return nil
}

type memWallet struct{ m *memStore }

func (s *memWallet) CreateEntry(_ context.Context, entry *models.WalletHistory) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	copied := *entry
	s.m.wallet = append(s.m.wallet, &copied)
	return nil
}

func (s *memWallet) ListByUser(_ context.Context, userID uuid.UUID, p pagination.Params) ([]models.WalletHistory, int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var matched []models.WalletHistory
	for _, entry := range s.m.wallet {
		if entry.UserID != nil && *entry.UserID == userID {
			matched = append(matched, *entry)
		}
	}
	return matched, int64(len(matched)), nil
}

type memNotifications struct{ m *memStore }

func (s *memNotifications) Create(_ context.Context, n *models.Notification) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now()
	copied := *n
	s.m.notifications[n.ID] = &copied
	return nil
}

func (s *memNotifications) ListByUser(_ context.Context, userID uuid.UUID, p pagination.Params) ([]models.Notification, int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var matched []models.Notification
	for _, n := range s.m.notifications {
		if n.UserID != nil && *n.UserID == userID {
			matched = append(matched, *n)
		}
	}
	return matched, int64(len(matched)), nil
}

func (s *memNotifications) MarkRead(_ context.Context, id uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	n, ok := s.m.notifications[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	n.IsRead = true
	return nil
}

func (s *memNotifications) MarkAllRead(_ context.Context, userID uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, n := range s.m.notifications {
		if n.UserID != nil && *n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (s *memNotifications) UnreadCount(_ context.Context, userID uuid.UUID) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var count int64
	for _, n := range s.m.notifications {
		if n.UserID != nil && *n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// fakeFiles implements storage.FileStore. Uploads named in failNames fail as
// if the storage backend were down.
type fakeFiles struct {
	mu        sync.Mutex
	uploads   []storage.UploadOptions
	failNames map[string]bool
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{failNames: map[string]bool{}}
}

func (f *fakeFiles) Upload(opts storage.UploadOptions) storage.UploadResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNames[opts.File.Name] {
		return storage.UploadResult{Success: false, Error: "simulated storage outage"}
	}
	f.uploads = append(f.uploads, opts)
	relPath := opts.Folder + "/" + opts.File.Name
	return storage.UploadResult{
		Success: true,
		URL:     "/uploads/" + opts.Bucket + "/" + relPath,
		Path:    relPath,
	}
}

func (f *fakeFiles) Delete(bucket, path string) error      { return nil }
func (f *fakeFiles) PublicURL(bucket, path string) string  { return "/uploads/" + bucket + "/" + path }
func (f *fakeFiles) List(bucket, folder string) ([]storage.FileMetadata, error) {
	return nil, nil
}
func (f *fakeFiles) Metadata(bucket, path string) (*storage.FileMetadata, error) {
	return nil, nil
}

// testEnv wires real services over the in-memory store.
type testEnv struct {
	store   *memStore
	files   *fakeFiles
	users   UserService
	cars    CarService
	refs    ReferralService
	auth    AuthService
	drivers DriverService
}

func newTestEnv() *testEnv {
	m := newMemStore()
	files := newFakeFiles()
	log := nopLogger{}

	users := NewUserService(m.User(), m.Wallet(), log)
	cars := NewCarService(m.Car(), log)
	refs := NewReferralService(m.Referral(), log)
	auth := NewAuthService(m.Auth(), log)
	drivers := NewDriverService(users, cars, refs, auth, files, Buckets{
		DriverDocuments:  "driver-documents",
		VehicleDocuments: "vehicle-documents",
	}, log)

	return &testEnv{store: m, files: files, users: users, cars: cars, refs: refs, auth: auth, drivers: drivers}
}

func fileNamed(name string) storage.File {
	return storage.File{
		Name:        name,
		ContentType: "image/jpeg",
		Size:        100,
		Reader:      strings.NewReader("fake image bytes"),
	}
}

func validRegistration() RegistrationInput {
	city := "Bogotá"
	soatExpiry := time.Now().AddDate(1, 0, 0)
	return RegistrationInput{
		Identity: IdentityInput{
			Email:     "nuevo.conductor@example.com",
			Password:  "secret123",
			FirstName: "Nuevo",
			LastName:  "Conductor",
			Mobile:    "+573001112233",
			City:      &city,
		},
		LicenseNumber: "LIC-998877",
		Documents: DriverDocuments{
			IDFront:      fileNamed("id_front.jpg"),
			IDBack:       fileNamed("id_back.jpg"),
			LicenseFront: fileNamed("license_front.jpg"),
			LicenseBack:  fileNamed("license_back.jpg"),
		},
		Vehicle: VehicleInput{
			Make:         "Chevrolet",
			Model:        "Spark",
			Plate:        "abc123",
			PropertyCard: fileNamed("property_card.jpg"),
			Soat:         fileNamed("soat.jpg"),
			SoatExpiry:   &soatExpiry,
		},
	}
}
