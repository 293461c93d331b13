package models

// RegisterDeviceRequest is the request body for registering a device.
type RegisterDeviceRequest struct {
	IMEI         string   `json:"imei"`
	FiscalNumber string   `json:"fiscalNumber"`
	Model        string   `json:"model"`
	Brand        string   `json:"brand"`
	PurchaseDate *Date    `json:"purchaseDate"`
	OwnerCpfCnpj string   `json:"ownerCpfCnpj"`
	OwnerName    string   `json:"ownerName"`
	OwnerEmail   string   `json:"ownerEmail"`
	OwnerPhone   string   `json:"ownerPhone"`
	Photos       []string `json:"photos"`
}

// DeviceSummary is the short device description embedded in results.
type DeviceSummary struct {
	ID    string `json:"id"`
	IMEI  string `json:"imei"`
	Model string `json:"model"`
	Brand string `json:"brand"`
}

// RegisteredWarranty describes the warranty activated by a registration.
type RegisteredWarranty struct {
	ID           string    `json:"id"`
	PolicyNumber string    `json:"policyNumber"`
	StartDate    Timestamp `json:"startDate"`
	EndDate      Timestamp `json:"endDate"`
}

// RegistrationResult is the response body for a device registration.
type RegistrationResult struct {
	Success   bool                `json:"success"`
	Device    *DeviceSummary      `json:"device,omitempty"`
	Warranty  *RegisteredWarranty `json:"warranty,omitempty"`
	Message   string              `json:"message"`
	EmailSent bool                `json:"emailSent"`
}

// ValidateWarrantyRequest is the request body for a warranty check.
// At least one of IMEI and FiscalNumber must be set.
type ValidateWarrantyRequest struct {
	IMEI         string `json:"imei,omitempty"`
	FiscalNumber string `json:"fiscalNumber,omitempty"`
	Model        string `json:"model"`
	OwnerCpfCnpj string `json:"ownerCpfCnpj"`
}

// WarrantyDetails is the full warranty view returned by a validation.
type WarrantyDetails struct {
	ID              string         `json:"id"`
	Status          WarrantyStatus `json:"status"`
	StartDate       Timestamp      `json:"startDate"`
	EndDate         Timestamp      `json:"endDate"`
	MaxClaims       int            `json:"maxClaims"`
	UsedClaims      int            `json:"usedClaims"`
	RemainingClaims int            `json:"remainingClaims"`
	PolicyNumber    string         `json:"policyNumber"`
	CoverageType    CoverageType   `json:"coverageType"`
}

// ValidationResult is the response body for a warranty check.
type ValidationResult struct {
	IsValid  bool             `json:"isValid"`
	Device   *DeviceSummary   `json:"device,omitempty"`
	Warranty *WarrantyDetails `json:"warranty,omitempty"`
	Message  string           `json:"message"`
}
