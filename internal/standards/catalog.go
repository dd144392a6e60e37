package standards

// Catalogue returns the built-in NDMO standards: three governance, six
// quality, four security, three architecture, and three business-rule
// standards. Weights are category-local and normalized by the scorer.
func Catalogue() []Standard {
	return []Standard{
		// --- Data Governance ---
		{
			ID:          "DG001",
			Name:        "Unique Identifiers",
			Description: "All data records must have unique identifiers",
			Category:    Governance,
			Requirement: "Primary key must exist and be unique",
			Threshold:   1.0,
			Weight:      0.2,
			Critical:    true,
			eval:        evalUniqueIdentifiers,
		},
		{
			ID:          "DG002",
			Name:        "Data Lineage",
			Description: "Data lineage must be documented and traceable",
			Category:    Governance,
			Requirement: "Source and transformation history must be documented",
			Threshold:   0.8,
			Weight:      0.15,
			eval:        evalDataLineage,
		},
		{
			ID:          "DG003",
			Name:        "Data Ownership",
			Description: "Data ownership must be clearly defined",
			Category:    Governance,
			Requirement: "Data steward and owner must be identified",
			Threshold:   0.9,
			Weight:      0.1,
			eval:        evalDataOwnership,
		},

		// --- Data Quality ---
		{
			ID:          "DQ001",
			Name:        "Data Completeness",
			Description: "Data completeness must meet minimum thresholds",
			Category:    Quality,
			Requirement: "No more than 5% missing values in critical fields",
			Threshold:   0.95,
			Weight:      0.25,
			Critical:    true,
			eval:        evalCompleteness,
		},
		{
			ID:          "DQ002",
			Name:        "Data Accuracy",
			Description: "Data accuracy must be validated and verified",
			Category:    Quality,
			Requirement: "Data must pass accuracy validation rules",
			Threshold:   0.98,
			Weight:      0.2,
			Critical:    true,
			eval:        evalAccuracy,
		},
		{
			ID:          "DQ003",
			Name:        "Data Consistency",
			Description: "Data must be consistent across systems",
			Category:    Quality,
			Requirement: "Data values must be consistent with business rules",
			Threshold:   0.95,
			Weight:      0.15,
			eval:        evalConsistency,
		},
		{
			ID:          "DQ004",
			Name:        "Data Uniqueness",
			Description: "Duplicate records must be minimized",
			Category:    Quality,
			Requirement: "No more than 2% duplicate records",
			Threshold:   0.98,
			Weight:      0.15,
			eval:        evalUniqueness,
		},
		{
			ID:          "DQ005",
			Name:        "Data Validity",
			Description: "Data must conform to defined formats and ranges",
			Category:    Quality,
			Requirement: "Data must pass format and range validation",
			Threshold:   0.95,
			Weight:      0.15,
			eval:        evalValidity,
		},
		{
			ID:          "DQ006",
			Name:        "Data Timeliness",
			Description: "Data must be current and up-to-date",
			Category:    Quality,
			Requirement: "Data must be updated within defined timeframes",
			Threshold:   0.9,
			Weight:      0.1,
			eval:        evalTimeliness,
		},

		// --- Data Security ---
		{
			ID:          "DS001",
			Name:        "Data Encryption",
			Description: "Sensitive data must be encrypted",
			Category:    Security,
			Requirement: "PII and sensitive data must be encrypted at rest and in transit",
			Threshold:   1.0,
			Weight:      0.3,
			Critical:    true,
			eval:        evalEncryption,
		},
		{
			ID:          "DS002",
			Name:        "Access Control",
			Description: "Data access must be controlled and monitored",
			Category:    Security,
			Requirement: "Role-based access control must be implemented",
			Threshold:   0.95,
			Weight:      0.25,
			Critical:    true,
			eval:        evalAccessControl,
		},
		{
			ID:          "DS003",
			Name:        "Data Masking",
			Description: "Sensitive data must be masked in non-production environments",
			Category:    Security,
			Requirement: "PII must be masked in test and development environments",
			Threshold:   1.0,
			Weight:      0.2,
			eval:        evalMasking,
		},
		{
			ID:          "DS004",
			Name:        "Audit Trail",
			Description: "Data access and modifications must be logged",
			Category:    Security,
			Requirement: "Complete audit trail must be maintained",
			Threshold:   0.95,
			Weight:      0.25,
			eval:        evalAuditTrail,
		},

		// --- Data Architecture ---
		{
			ID:          "DA001",
			Name:        "Data Modeling",
			Description: "Data models must follow standard conventions",
			Category:    Architecture,
			Requirement: "Data models must follow naming conventions and best practices",
			Threshold:   0.9,
			Weight:      0.2,
			eval:        evalModeling,
		},
		{
			ID:          "DA002",
			Name:        "Data Integration",
			Description: "Data integration must be standardized",
			Category:    Architecture,
			Requirement: "ETL processes must follow standard patterns",
			Threshold:   0.85,
			Weight:      0.15,
			eval:        evalIntegration,
		},
		{
			ID:          "DA003",
			Name:        "Data Storage",
			Description: "Data storage must follow retention policies",
			Category:    Architecture,
			Requirement: "Data must be stored according to retention policies",
			Threshold:   0.9,
			Weight:      0.15,
			eval:        evalStorage,
		},

		// --- Business Rules ---
		{
			ID:          "BR001",
			Name:        "Business Rule Validation",
			Description: "Business rules must be implemented and validated",
			Category:    BusinessRules,
			Requirement: "All business rules must be documented and implemented",
			Threshold:   0.95,
			Weight:      0.3,
			eval:        evalRuleValidation,
		},
		{
			ID:          "BR002",
			Name:        "Data Relationships",
			Description: "Data relationships must be properly defined",
			Category:    BusinessRules,
			Requirement: "Foreign key relationships must be enforced",
			Threshold:   0.9,
			Weight:      0.2,
			eval:        evalRelationships,
		},
		{
			ID:          "BR003",
			Name:        "Calculated Fields",
			Description: "Calculated fields must be accurate and consistent",
			Category:    BusinessRules,
			Requirement: "Calculated fields must follow business logic",
			Threshold:   0.98,
			Weight:      0.25,
			eval:        evalCalculatedFields,
		},
	}
}
