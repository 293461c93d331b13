package models

// CreateClaimRequest is the request body for submitting a claim.
type CreateClaimRequest struct {
	DeviceID          string     `json:"deviceId"`
	DamageType        DamageType `json:"damageType"`
	DamageDescription string     `json:"damageDescription"`
	IncidentDate      *Date      `json:"incidentDate"`
	CustomerName      string     `json:"customerName"`
	CustomerCpf       string     `json:"customerCpf"`
	CustomerPhone     string     `json:"customerPhone"`
	CustomerEmail     string     `json:"customerEmail"`
	EvidencePhotos    []string   `json:"evidencePhotos,omitempty"`
	Documents         []string   `json:"documents,omitempty"`
}

// ClaimDevice is the device summary embedded in a claim response.
type ClaimDevice struct {
	IMEI  string `json:"imei"`
	Model string `json:"model"`
	Brand string `json:"brand"`
}

// ClaimWarranty is the warranty summary embedded in a claim response.
type ClaimWarranty struct {
	PolicyNumber    string `json:"policyNumber"`
	RemainingClaims int    `json:"remainingClaims"`
}

// Claim is the response body describing a claim.
type Claim struct {
	ID                string        `json:"id"`
	ProtocolNumber    string        `json:"protocolNumber"`
	Status            ClaimStatus   `json:"status"`
	DamageType        DamageType    `json:"damageType"`
	DamageDescription string        `json:"damageDescription"`
	IncidentDate      Timestamp     `json:"incidentDate"`
	CustomerName      string        `json:"customerName"`
	CustomerCpf       string        `json:"customerCpf"`
	CustomerPhone     string        `json:"customerPhone"`
	CustomerEmail     string        `json:"customerEmail"`
	CreatedAt         Timestamp     `json:"createdAt"`
	Device            ClaimDevice   `json:"device"`
	Warranty          ClaimWarranty `json:"warranty"`
}

// UpdateClaimStatusRequest is the request body for changing a claim status.
type UpdateClaimStatusRequest struct {
	Status     ClaimStatus `json:"status"`
	AdminNotes *string     `json:"adminNotes,omitempty"`
}

// DamageTypeOption is a selectable damage type with its display label.
type DamageTypeOption struct {
	Value DamageType `json:"value"`
	Label string     `json:"label"`
}
