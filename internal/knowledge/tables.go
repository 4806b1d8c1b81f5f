package knowledge

import (
	"github.com/clinical-cds-server/internal/domain"
)

// Static clinical knowledge tables. Loaded once at process start and treated
// as read-only afterwards, which permits unrestricted concurrent reads.

// conditionProfiles maps condition key -> static profile
var conditionProfiles = map[string]*domain.ConditionProfile{
	"myocardial_infarction": {
		Key:             "myocardial_infarction",
		Name:            "Myocardial Infarction",
		ICDCodes:        []string{"I21.9"},
		TypicalSymptoms: []string{"chest_pain", "shortness_of_breath", "diaphoresis", "nausea", "arm_pain"},
		Guidelines:      []string{"Obtain 12-lead ECG within 10 minutes", "Serial troponin at 0h and 3h"},
		Emergency:       true,
	},
	"stroke": {
		Key:             "stroke",
		Name:            "Acute Cerebrovascular Accident",
		ICDCodes:        []string{"I63.9"},
		TypicalSymptoms: []string{"sudden_weakness", "slurred_speech", "facial_droop", "confusion", "headache"},
		Guidelines:      []string{"Non-contrast head CT before thrombolysis", "Document last-known-well time"},
		Emergency:       true,
	},
	"sepsis": {
		Key:             "sepsis",
		Name:            "Sepsis",
		ICDCodes:        []string{"A41.9"},
		TypicalSymptoms: []string{"fever", "confusion", "chills", "fatigue", "hypotension"},
		Guidelines:      []string{"Blood cultures before antibiotics", "Lactate within 1 hour"},
		Emergency:       true,
	},
	"pulmonary_embolism": {
		Key:             "pulmonary_embolism",
		Name:            "Pulmonary Embolism",
		ICDCodes:        []string{"I26.9"},
		TypicalSymptoms: []string{"pleuritic_chest_pain", "shortness_of_breath", "leg_swelling", "palpitations"},
		Guidelines:      []string{"Risk-stratify with Wells criteria", "D-dimer only in low pretest probability"},
		Emergency:       true,
	},
	"heart_failure": {
		Key:             "heart_failure",
		Name:            "Congestive Heart Failure",
		ICDCodes:        []string{"I50.9"},
		TypicalSymptoms: []string{"shortness_of_breath", "leg_swelling", "fatigue", "orthopnea"},
		Guidelines:      []string{"BNP or NT-proBNP on presentation"},
		HighUrgency:     true,
	},
	"pneumonia": {
		Key:             "pneumonia",
		Name:            "Community-Acquired Pneumonia",
		ICDCodes:        []string{"J18.9"},
		TypicalSymptoms: []string{"fever", "cough", "sputum", "pleuritic_chest_pain", "shortness_of_breath"},
		Guidelines:      []string{"CURB-65 for disposition decision"},
		HighUrgency:     true,
	},
	"appendicitis": {
		Key:             "appendicitis",
		Name:            "Acute Appendicitis",
		ICDCodes:        []string{"K35.80"},
		TypicalSymptoms: []string{"abdominal_pain", "right_lower_quadrant_pain", "nausea", "fever", "anorexia"},
		Guidelines:      []string{"Keep patient NPO pending surgical review"},
		HighUrgency:     true,
	},
	"copd_exacerbation": {
		Key:             "copd_exacerbation",
		Name:            "COPD Exacerbation",
		ICDCodes:        []string{"J44.1"},
		TypicalSymptoms: []string{"shortness_of_breath", "wheezing", "cough", "sputum"},
		HighUrgency:     true,
	},
	"gastroesophageal_reflux": {
		Key:             "gastroesophageal_reflux",
		Name:            "Gastroesophageal Reflux Disease",
		ICDCodes:        []string{"K21.9"},
		TypicalSymptoms: []string{"heartburn", "chest_pain", "regurgitation", "nausea"},
	},
	"migraine": {
		Key:             "migraine",
		Name:            "Migraine",
		ICDCodes:        []string{"G43.909"},
		TypicalSymptoms: []string{"headache", "photophobia", "nausea", "vomiting"},
	},
	"urinary_tract_infection": {
		Key:             "urinary_tract_infection",
		Name:            "Urinary Tract Infection",
		ICDCodes:        []string{"N39.0"},
		TypicalSymptoms: []string{"dysuria", "urinary_frequency", "fever", "abdominal_pain"},
	},
	"anxiety_disorder": {
		Key:             "anxiety_disorder",
		Name:            "Anxiety Disorder",
		ICDCodes:        []string{"F41.9"},
		TypicalSymptoms: []string{"palpitations", "chest_pain", "shortness_of_breath", "diaphoresis"},
	},
}

// priorTable holds baseline probabilities per condition before any evidence
var priorTable = domain.PriorTable{
	"myocardial_infarction":   0.02,
	"stroke":                  0.015,
	"sepsis":                  0.01,
	"pulmonary_embolism":      0.01,
	"heart_failure":           0.03,
	"pneumonia":               0.05,
	"appendicitis":            0.02,
	"copd_exacerbation":       0.03,
	"gastroesophageal_reflux": 0.12,
	"migraine":                0.10,
	"urinary_tract_infection": 0.08,
	"anxiety_disorder":        0.09,
}

// likelihoodTable maps finding token -> condition key -> likelihood ratios.
// Positive applies when the finding is present, negative when absent.
var likelihoodTable = domain.LikelihoodTable{
	"chest_pain": {
		"myocardial_infarction":   {Positive: 5.8, Negative: 0.30},
		"pulmonary_embolism":      {Positive: 1.9, Negative: 0.70},
		"gastroesophageal_reflux": {Positive: 2.2, Negative: 0.75},
		"anxiety_disorder":        {Positive: 1.6, Negative: 0.90},
		"pneumonia":               {Positive: 1.2, Negative: 0.95},
	},
	"pleuritic_chest_pain": {
		"pulmonary_embolism": {Positive: 3.2, Negative: 0.65},
		"pneumonia":          {Positive: 2.1, Negative: 0.85},
	},
	"shortness_of_breath": {
		"myocardial_infarction": {Positive: 2.4, Negative: 0.60},
		"pulmonary_embolism":    {Positive: 2.9, Negative: 0.45},
		"heart_failure":         {Positive: 3.4, Negative: 0.40},
		"pneumonia":             {Positive: 2.0, Negative: 0.70},
		"copd_exacerbation":     {Positive: 3.1, Negative: 0.50},
		"anxiety_disorder":      {Positive: 1.5, Negative: 0.90},
	},
	"diaphoresis": {
		"myocardial_infarction": {Positive: 3.5, Negative: 0.80},
		"sepsis":                {Positive: 1.8, Negative: 0.90},
		"anxiety_disorder":      {Positive: 1.7, Negative: 0.90},
	},
	"nausea": {
		"myocardial_infarction":   {Positive: 1.6, Negative: 0.90},
		"appendicitis":            {Positive: 1.9, Negative: 0.80},
		"migraine":                {Positive: 1.8, Negative: 0.85},
		"gastroesophageal_reflux": {Positive: 1.3, Negative: 0.95},
	},
	"vomiting": {
		"appendicitis": {Positive: 1.7, Negative: 0.90},
		"migraine":     {Positive: 1.6, Negative: 0.90},
	},
	"arm_pain": {
		"myocardial_infarction": {Positive: 2.8, Negative: 0.85},
	},
	"fever": {
		"sepsis":                  {Positive: 3.8, Negative: 0.40},
		"pneumonia":               {Positive: 2.6, Negative: 0.55},
		"appendicitis":            {Positive: 1.8, Negative: 0.80},
		"urinary_tract_infection": {Positive: 1.9, Negative: 0.85},
	},
	"chills": {
		"sepsis":    {Positive: 2.4, Negative: 0.80},
		"pneumonia": {Positive: 1.8, Negative: 0.90},
	},
	"hypotension": {
		"sepsis": {Positive: 4.5, Negative: 0.60},
	},
	"cough": {
		"pneumonia":         {Positive: 2.3, Negative: 0.50},
		"copd_exacerbation": {Positive: 2.0, Negative: 0.70},
	},
	"sputum": {
		"pneumonia":         {Positive: 2.2, Negative: 0.80},
		"copd_exacerbation": {Positive: 2.1, Negative: 0.80},
	},
	"wheezing": {
		"copd_exacerbation": {Positive: 3.0, Negative: 0.60},
		"heart_failure":     {Positive: 1.4, Negative: 0.95},
	},
	"headache": {
		"migraine": {Positive: 4.2, Negative: 0.20},
		"stroke":   {Positive: 1.5, Negative: 0.90},
	},
	"photophobia": {
		"migraine": {Positive: 3.6, Negative: 0.70},
	},
	"sudden_weakness": {
		"stroke": {Positive: 5.5, Negative: 0.35},
	},
	"slurred_speech": {
		"stroke": {Positive: 5.0, Negative: 0.50},
	},
	"facial_droop": {
		"stroke": {Positive: 6.5, Negative: 0.60},
	},
	"confusion": {
		"stroke": {Positive: 2.2, Negative: 0.85},
		"sepsis": {Positive: 2.6, Negative: 0.80},
	},
	"palpitations": {
		"anxiety_disorder":   {Positive: 2.4, Negative: 0.70},
		"pulmonary_embolism": {Positive: 1.5, Negative: 0.95},
	},
	"heartburn": {
		"gastroesophageal_reflux": {Positive: 3.8, Negative: 0.45},
	},
	"regurgitation": {
		"gastroesophageal_reflux": {Positive: 3.2, Negative: 0.75},
	},
	"abdominal_pain": {
		"appendicitis":            {Positive: 3.4, Negative: 0.30},
		"urinary_tract_infection": {Positive: 1.5, Negative: 0.90},
	},
	"right_lower_quadrant_pain": {
		"appendicitis": {Positive: 5.2, Negative: 0.45},
	},
	"anorexia": {
		"appendicitis": {Positive: 1.8, Negative: 0.85},
	},
	"dysuria": {
		"urinary_tract_infection": {Positive: 4.8, Negative: 0.40},
	},
	"urinary_frequency": {
		"urinary_tract_infection": {Positive: 2.9, Negative: 0.70},
	},
	"leg_swelling": {
		"heart_failure":      {Positive: 2.8, Negative: 0.70},
		"pulmonary_embolism": {Positive: 2.4, Negative: 0.85},
	},
	"orthopnea": {
		"heart_failure": {Positive: 3.6, Negative: 0.75},
	},
	"fatigue": {
		"heart_failure": {Positive: 1.5, Negative: 0.85},
		"sepsis":        {Positive: 1.3, Negative: 0.95},
	},
}
