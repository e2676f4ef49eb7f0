package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_BUYER  = "buyer"
	ROLE_SELLER = "seller"
	ROLE_ADMIN  = "admin"

	STATUS_ACTIVE    = "active"
	STATUS_INACTIVE  = "inactive"
	STATUS_SUSPENDED = "suspended"
)

type User struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(150)" json:"name" validate:"required,min=3,max=150"`
	Email       string `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	Password    string `gorm:"type:text" json:"-" validate:"required,min=6"`
	Role        string `gorm:"type:varchar(50);default:'buyer'" json:"role" validate:"oneof=buyer seller admin"`
	Status      string `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active inactive suspended"`
	CompanyName string `gorm:"type:varchar(200);default:null" json:"company_name" validate:"max=200"`
	Phone       string `gorm:"type:varchar(40);default:null" json:"phone" validate:"max=40"`

	// Per-seller commission overrides. Nil means the platform default
	// applies; each of the two rates falls back independently.
	CustomBuyerPremiumPercent     *float64 `gorm:"type:decimal(5,2);default:null" json:"custom_buyer_premium_percent,omitempty"`
	CustomSellerCommissionPercent *float64 `gorm:"type:decimal(5,2);default:null" json:"custom_seller_commission_percent,omitempty"`

	APIKeyHash       string     `gorm:"type:char(64);default:'';index" json:"-"`
	APIKeyCreatedAt  *time.Time `json:"-"`
	APIKeyLastUsedAt *time.Time `json:"-"`

	LastLoginAt *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func CreateUser(name string, email string, password string, role string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:     name,
		Email:    email,
		Password: pw,
		Role:     role,
		Status:   STATUS_ACTIVE,
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// IsActive reports whether the user status is active
func (u *User) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}

// IsSeller reports whether the user may create listings
func (u *User) IsSeller() bool {
	return u.Role == ROLE_SELLER || u.Role == ROLE_ADMIN
}

// HasCustomRates reports whether at least one commission override is set
func (u *User) HasCustomRates() bool {
	return u.CustomBuyerPremiumPercent != nil || u.CustomSellerCommissionPercent != nil
}

// HashAPIKey returns the SHA-256 hex digest used to look up API keys.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// IssueAPIKey generates a new API key, stores its hash on the user, and
// returns the raw secret. The raw key is never persisted.
func (u *User) IssueAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	raw := hex.EncodeToString(b)
	u.APIKeyHash = HashAPIKey(raw)
	now := time.Now()
	u.APIKeyCreatedAt = &now
	return raw, nil
}
