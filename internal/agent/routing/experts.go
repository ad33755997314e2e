package routing

import (
	"math"
	"sort"
)

// ExpertID identifies one of the 20 fine-grained experts in the routing
// taxonomy. Each expert owns at most 12 domain tools; the 8 shared tools
// are always appended on top, analogous to a DeepSeek-style "shared
// expert" that is never routed away from.
type ExpertID string

const (
	ExpertFileOps       ExpertID = "file_ops"
	ExpertGit           ExpertID = "git"
	ExpertMacOSApps     ExpertID = "macos_apps"
	ExpertMacOSSystem   ExpertID = "macos_system"
	ExpertScreenUI      ExpertID = "screen_ui"
	ExpertCommunication ExpertID = "communication"
	ExpertWebBrowse     ExpertID = "web_browse"
	ExpertDevTools      ExpertID = "dev_tools"
	ExpertProductivity  ExpertID = "productivity"
	ExpertSecScan       ExpertID = "sec_scan"
	ExpertSecReview     ExpertID = "sec_review"
	ExpertSecCompliance ExpertID = "sec_compliance"
	ExpertSecIncident   ExpertID = "sec_incident"
	ExpertMLTrain       ExpertID = "ml_train"
	ExpertMLData        ExpertID = "ml_data"
	ExpertMLInference   ExpertID = "ml_inference"
	ExpertMLSafety      ExpertID = "ml_safety"
	ExpertMLResearch    ExpertID = "ml_research"
	ExpertSRE           ExpertID = "sre"
	ExpertResearch      ExpertID = "research"
)

// AllExperts lists every expert variant for enumeration.
func AllExperts() []ExpertID {
	return []ExpertID{
		ExpertFileOps, ExpertGit, ExpertMacOSApps, ExpertMacOSSystem, ExpertScreenUI,
		ExpertCommunication, ExpertWebBrowse, ExpertDevTools, ExpertProductivity,
		ExpertSecScan, ExpertSecReview, ExpertSecCompliance, ExpertSecIncident,
		ExpertMLTrain, ExpertMLData, ExpertMLInference, ExpertMLSafety, ExpertMLResearch,
		ExpertSRE, ExpertResearch,
	}
}

// SharedTools are the 8 always-on tools appended regardless of routing.
func SharedTools() []string {
	return []string{
		"ask_user", "echo", "datetime", "calculator",
		"web_search", "file_read", "file_write", "shell_exec",
	}
}

type expertDef struct {
	displayName      string
	domainTools      []string
	keywords         []string
	negativeKeywords []string
	addendum         string
	exclusions       []string
}

var expertTable = map[ExpertID]expertDef{
	ExpertFileOps: {
		displayName: "File Operations",
		domainTools: []string{"file_list", "file_search", "file_patch", "smart_edit", "file_organizer", "compress", "document_read", "pdf_generate"},
		keywords:    []string{"file", "read", "write", "create", "delete", "list", "search", "directory", "folder", "path", "move", "rename", "organize", "compress", "document", "pdf"},
		negativeKeywords: []string{"train", "deploy", "scan vulnerability"},
		addendum:    "You are specialized in file operations: reading, writing, searching, patching, organizing files, and document processing. Focus on precise file manipulation.",
		exclusions:  []string{"HomeKit", "Photos.app", "Siri", "LoRA", "quantiz"},
	},
	ExpertGit: {
		displayName: "Git & Code",
		domainTools: []string{"git_status", "git_diff", "git_commit", "codebase_search", "code_intelligence"},
		keywords:    []string{"git", "commit", "diff", "branch", "merge", "push", "pull", "status", "log", "stash", "rebase", "cherry-pick", "codebase"},
		negativeKeywords: []string{"calendar", "music", "train model"},
		addendum:    "You are specialized in git version control: status, diff, commit, codebase search, and code intelligence. Focus on efficient VCS operations.",
		exclusions:  []string{"HomeKit", "Photos.app", "Siri", "LoRA", "quantiz"},
	},
	ExpertMacOSApps: {
		displayName: "macOS Apps",
		domainTools: []string{"macos_calendar", "macos_reminders", "macos_notes", "macos_mail", "macos_music", "macos_shortcuts", "photos", "homekit", "macos_say", "macos_notification", "macos_meeting_recorder", "macos_daily_briefing"},
		keywords:    []string{"calendar", "reminder", "notes", "mail", "email", "music", "shortcut", "photo", "homekit", "say", "speak", "notification", "meeting", "briefing", "todo"},
		negativeKeywords: []string{"scan", "vulnerability", "kubernetes"},
		addendum:    "You are specialized in macOS native apps via AppleScript: calendars, reminders, notes, mail, music, shortcuts, photos, HomeKit, notifications, meeting recording, and daily briefings.",
		exclusions:  []string{"kubernetes", "prometheus", "terraform", "LoRA", "quantiz", "finetun", "training data", "SAST", "SBOM", "CycloneDX"},
	},
	ExpertMacOSSystem: {
		displayName: "macOS System",
		domainTools: []string{"macos_app_control", "macos_clipboard", "macos_screenshot", "macos_system_info", "macos_spotlight", "macos_finder", "macos_focus_mode", "macos_notification"},
		keywords:    []string{"app", "launch", "quit", "clipboard", "screenshot", "system info", "battery", "cpu", "disk", "spotlight", "finder", "focus mode", "dnd"},
		negativeKeywords: []string{"train", "deploy", "vulnerability"},
		addendum:    "You are specialized in macOS system operations: app control, clipboard, screenshots, system info, Spotlight search, Finder, Focus Mode, and notifications.",
		exclusions:  []string{"kubernetes", "prometheus", "terraform", "LoRA", "quantiz", "finetun", "training data", "SAST", "SBOM", "CycloneDX"},
	},
	ExpertScreenUI: {
		displayName: "Screen UI",
		domainTools: []string{"macos_gui_scripting", "macos_accessibility", "macos_screen_analyze", "macos_contacts", "macos_safari", "macos_app_control"},
		keywords:    []string{"gui", "scripting", "accessibility", "ocr", "screen", "click", "button", "window", "contacts", "safari", "ui element", "automation"},
		negativeKeywords: []string{"train", "scan", "kubernetes"},
		addendum:    "You are specialized in macOS screen automation. Use GUI scripting for UI interaction, accessibility APIs for element inspection, and OCR for screen text extraction. Follow the workflow: app_control -> accessibility -> gui_scripting -> screen_analyze.",
		exclusions:  []string{"kubernetes", "prometheus", "terraform", "LoRA", "quantiz", "finetun", "training data", "SAST", "SBOM", "CycloneDX"},
	},
	ExpertCommunication: {
		displayName: "Communication",
		domainTools: []string{"imessage_send", "imessage_read", "imessage_contacts", "slack", "siri"},
		keywords:    []string{"imessage", "message", "sms", "text", "slack", "siri", "voice command", "chat", "send message"},
		negativeKeywords: []string{"file", "git", "train", "scan"},
		addendum:    "You are specialized in messaging and communication: iMessage (send, read, contacts), Slack integration, and Siri voice commands.",
		exclusions:  []string{"kubernetes", "prometheus", "terraform", "LoRA", "quantiz", "finetun", "training data", "SAST", "SBOM", "CycloneDX"},
	},
	ExpertWebBrowse: {
		displayName: "Web & Browser",
		domainTools: []string{"web_fetch", "http_api", "arxiv_research", "browser_navigate", "browser_click", "browser_type", "browser_screenshot", "knowledge_graph"},
		keywords:    []string{"browser", "web", "fetch", "http", "url", "navigate", "webpage", "download", "api", "arxiv"},
		negativeKeywords: []string{"calendar", "reminder", "train model"},
		addendum:    "You are specialized in web interaction: browser automation (navigate, click, type, screenshot), HTTP APIs, web content fetching, and academic research via arXiv.",
		exclusions:  []string{"HomeKit", "Photos.app"},
	},
	ExpertDevTools: {
		displayName: "Development",
		domainTools: []string{"scaffold", "dev_server", "database", "test_runner", "lint", "template", "git_status", "git_diff", "git_commit", "codebase_search", "code_intelligence", "smart_edit"},
		keywords:    []string{"scaffold", "dev server", "database", "test", "lint", "template", "build", "compile", "framework", "project", "code review", "refactor"},
		negativeKeywords: []string{"calendar", "music", "train model"},
		addendum:    "You are specialized in full-stack development: scaffolding projects, running dev servers, database operations, testing, linting, and code intelligence. Use framework-aware tools that detect project type automatically.",
		exclusions:  []string{"HomeKit", "Photos.app", "Siri", "LoRA", "quantiz"},
	},
	ExpertProductivity: {
		displayName: "Productivity",
		domainTools: []string{"knowledge_graph", "experiment_tracker", "content_engine", "skill_tracker", "career_intel", "life_planner", "privacy_manager", "self_improvement", "pomodoro", "inbox"},
		keywords:    []string{"knowledge graph", "experiment", "content", "skill", "career", "life plan", "privacy", "self improvement", "pomodoro", "inbox", "productivity"},
		negativeKeywords: []string{"scan vulnerability", "kubernetes", "train model"},
		addendum:    "You are specialized in personal productivity: knowledge graphs, experiment tracking, content creation, skill development, career planning, life planning, and privacy management.",
		exclusions:  []string{"HomeKit", "Photos.app"},
	},
	ExpertSecScan: {
		displayName: "Security Scan",
		domainTools: []string{"sast_scan", "sca_scan", "secrets_scan", "security_scan", "supply_chain_check", "container_scan", "dockerfile_lint", "iac_scan", "vulnerability_check"},
		keywords:    []string{"sast", "sca", "secret", "vulnerability", "scan", "supply chain", "container", "dockerfile", "iac", "security scan"},
		negativeKeywords: []string{"calendar", "music", "train model", "rag"},
		addendum:    "You are specialized in security scanning: SAST, SCA, secrets detection, supply chain analysis, container scanning, Dockerfile linting, IaC scanning, and vulnerability checking.",
		exclusions:  []string{"AppleScript", "macOS", "Calendar", "Reminders", "Notes.app", "HomeKit", "Photos.app", "Safari", "iMessage", "Siri", "LoRA", "quantiz", "finetun", "RAG", "embedding"},
	},
	ExpertSecReview: {
		displayName: "Security Review",
		domainTools: []string{"code_review", "analyze_diff", "quality_score", "complexity_check", "dead_code_detect", "duplicate_detect", "tech_debt_report", "suggest_fix", "apply_fix"},
		keywords:    []string{"code review", "quality", "complexity", "dead code", "duplication", "tech debt", "autofix", "suggest fix"},
		negativeKeywords: []string{"calendar", "music", "train model", "rag"},
		addendum:    "You are specialized in code quality and security review: code review, diff analysis, quality scoring, complexity checking, dead code detection, duplication analysis, tech debt reporting, and automated fix suggestions.",
		exclusions:  []string{"AppleScript", "macOS", "Calendar", "Reminders", "Notes.app", "HomeKit", "Photos.app", "Safari", "iMessage", "Siri", "LoRA", "quantiz", "finetun", "RAG", "embedding"},
	},
	ExpertSecCompliance: {
		displayName: "Compliance",
		domainTools: []string{"license_check", "sbom_generate", "sbom_diff", "compliance_report", "policy_check", "risk_score", "audit_export", "secrets_validate"},
		keywords:    []string{"license", "sbom", "compliance", "policy", "risk", "audit", "regulation", "standard"},
		negativeKeywords: []string{"calendar", "music", "train model", "rag"},
		addendum:    "You are specialized in compliance: license checking, SBOM generation and diffing, compliance reporting, policy enforcement, risk scoring, audit export, and secrets validation.",
		exclusions:  []string{"AppleScript", "macOS", "Calendar", "Reminders", "Notes.app", "HomeKit", "Photos.app", "Safari", "iMessage", "Siri", "LoRA", "quantiz", "finetun", "RAG", "embedding"},
	},
	ExpertSecIncident: {
		displayName: "Incident Response",
		domainTools: []string{"alert_status", "alert_triage", "incident_respond", "log_analyze", "threat_detect", "k8s_lint", "terraform_check"},
		keywords:    []string{"alert", "triage", "incident", "respond", "log", "threat", "k8s", "terraform", "mitre"},
		negativeKeywords: []string{"calendar", "music", "train model"},
		addendum:    "You are specialized in incident response: alert management, alert triage, incident response execution, log analysis, threat detection, Kubernetes linting, and Terraform validation.",
		exclusions:  []string{"AppleScript", "macOS", "Calendar", "Reminders", "Notes.app", "HomeKit", "Photos.app", "Safari", "iMessage", "Siri", "LoRA", "quantiz", "finetun", "RAG", "embedding"},
	},
	ExpertMLTrain: {
		displayName: "ML Training",
		domainTools: []string{"ml_train", "ml_experiment", "ml_hyperparams", "ml_checkpoint", "ml_metrics", "ml_finetune", "ml_dataset_prep", "ml_quantize", "ml_adapter", "ml_eval_harness"},
		keywords:    []string{"train", "fine-tune", "finetune", "lora", "qlora", "adapter", "quantize", "quantization", "checkpoint", "hyperparameter", "epoch", "gradient", "backprop", "neural", "model"},
		negativeKeywords: []string{"calendar", "music", "kubernetes", "compliance"},
		addendum:    "You are specialized in ML model training: experiment management, fine-tuning (LoRA, QLoRA), hyperparameter tuning, checkpointing, metrics logging, dataset preparation, quantization, and adapter management.",
		exclusions:  []string{"AppleScript", "macOS", "Calendar", "Reminders", "Notes.app", "GUI scripting", "accessibility", "HomeKit", "Photos.app", "Safari", "iMessage", "Siri", "meeting_recorder"},
	},
	ExpertMLData: {
		displayName: "ML Data",
		domainTools: []string{"ml_source", "ml_schema", "ml_transform", "ml_validate", "ml_storage", "ml_lineage", "ml_feature_define", "ml_feature_transform", "ml_feature_store"},
		keywords:    []string{"dataset", "data pipeline", "schema", "transform", "validate", "feature", "feature store", "lineage", "data source", "training data"},
		negativeKeywords: []string{"calendar", "music", "kubernetes", "compliance"},
		addendum:    "You are specialized in ML data engineering: data sourcing, schema management, transformations, validation, storage, lineage tracking, and feature engineering (definition, transforms, feature store).",
		exclusions:  []string{"AppleScript", "macOS", "Calendar", "Reminders", "Notes.app", "GUI scripting", "accessibility", "HomeKit", "Photos.app", "Safari", "iMessage", "Siri", "meeting_recorder"},
	},
	ExpertMLInference: {
		displayName: "ML Inference",
		domainTools: []string{"rag_ingest", "rag_chunk", "rag_retriever", "rag_reranker", "rag_pipeline", "inference_serve", "inference_predict", "inference_benchmark"},
		keywords:    []string{"rag", "retrieval", "inference", "serve", "predict", "embed", "vector", "chunk", "rerank", "pipeline"},
		negativeKeywords: []string{"calendar", "music", "kubernetes"},
		addendum:    "You are specialized in ML inference and RAG: document ingestion, chunking, retrieval, reranking, RAG pipelines, model serving, prediction, and inference benchmarking.",
		exclusions:  []string{"AppleScript", "macOS", "Calendar", "Reminders", "Notes.app", "GUI scripting", "accessibility", "HomeKit", "Photos.app", "Safari", "iMessage", "Siri", "meeting_recorder"},
	},
	ExpertMLSafety: {
		displayName: "ML Safety",
		domainTools: []string{"ai_safety_check", "ai_pii_scan", "ai_bias_check", "ai_alignment_eval", "ai_threat_detect", "ai_adversarial_check", "ai_provenance", "ai_audit_trail"},
		keywords:    []string{"ai safety", "pii", "bias", "fairness", "alignment", "adversarial", "provenance", "audit trail", "red team"},
		negativeKeywords: []string{"calendar", "music", "kubernetes"},
		addendum:    "You are specialized in AI safety and security: PII scanning, bias detection, alignment evaluation, threat detection, adversarial testing, provenance tracking, and audit trails.",
		exclusions:  []string{"AppleScript", "macOS", "Calendar", "Reminders", "Notes.app", "GUI scripting", "accessibility", "HomeKit", "Photos.app", "Safari", "iMessage", "Siri", "meeting_recorder"},
	},
	ExpertMLResearch: {
		displayName: "ML Research",
		domainTools: []string{"research_search", "research_summarize", "research_compare", "research_implement", "ai_explain", "ai_reasoning_trace", "ai_feature_importance", "eval_run", "eval_compare"},
		keywords:    []string{"research", "evaluate", "benchmark", "explain", "reasoning", "interpretab", "explainab", "compare model", "eval harness"},
		negativeKeywords: []string{"calendar", "music", "kubernetes"},
		addendum:    "You are specialized in ML research and evaluation: literature search, summarization, comparison, implementation, explainability, reasoning traces, feature importance, and evaluation runs.",
		exclusions:  []string{"AppleScript", "macOS", "Calendar", "Reminders", "Notes.app", "GUI scripting", "accessibility", "HomeKit", "Photos.app", "Safari", "iMessage", "Siri", "meeting_recorder"},
	},
	ExpertSRE: {
		displayName: "SRE/DevOps",
		domainTools: []string{"alert_manager", "deployment_intel", "prometheus", "kubernetes", "oncall", "system_monitor"},
		keywords:    []string{"alert", "deployment", "prometheus", "kubernetes", "k8s", "oncall", "monitor", "uptime", "sre", "incident"},
		negativeKeywords: []string{"calendar", "music", "train model", "rag"},
		addendum:    "You are specialized in Site Reliability Engineering: alert management, deployment risk assessment, Prometheus monitoring, Kubernetes operations, on-call management, and system monitoring.",
		exclusions:  []string{"AppleScript", "Calendar", "Reminders", "Notes.app", "HomeKit", "Photos.app", "Safari", "iMessage", "Siri", "LoRA", "quantiz", "finetun"},
	},
	ExpertResearch: {
		displayName: "Deep Research",
		domainTools: []string{"arxiv_research", "web_fetch", "http_api", "document_read", "knowledge_graph"},
		keywords:    []string{"research", "investigate", "analyze", "synthesize", "literature", "source", "deep research"},
		negativeKeywords: []string{"calendar", "music", "kubernetes", "deploy"},
		addendum:    "You are specialized in deep research: decomposing complex questions, gathering information from multiple sources (web, academic papers, documentation), and synthesizing findings. Always cite sources.",
		exclusions:  []string{"HomeKit", "Photos.app"},
	},
}

// DisplayName returns the human-readable name for an expert.
func (e ExpertID) DisplayName() string {
	if def, ok := expertTable[e]; ok {
		return def.displayName
	}
	return string(e)
}

// DomainTools returns the expert's domain-specific tools (excluding shared tools).
func (e ExpertID) DomainTools() []string {
	if def, ok := expertTable[e]; ok {
		return append([]string(nil), def.domainTools...)
	}
	return nil
}

// ToolNames returns shared_tools ∪ domain_tools, capped at 20 entries.
func (e ExpertID) ToolNames() []string {
	tools := append(SharedTools(), e.DomainTools()...)
	if len(tools) > 20 {
		tools = tools[:20]
	}
	return tools
}

// Keywords returns the expert's positive keyword list for sigmoid scoring.
func (e ExpertID) Keywords() []string {
	if def, ok := expertTable[e]; ok {
		return def.keywords
	}
	return nil
}

// NegativeKeywords returns the expert's negative keyword list.
func (e ExpertID) NegativeKeywords() []string {
	if def, ok := expertTable[e]; ok {
		return def.negativeKeywords
	}
	return nil
}

// SystemPromptAddendum returns the expert's system-prompt specialization text.
func (e ExpertID) SystemPromptAddendum() string {
	if def, ok := expertTable[e]; ok {
		return def.addendum
	}
	return ""
}

// SystemPromptExclusions returns keyword patterns the prompt optimizer may
// use to strip non-core lines from the full system prompt.
func (e ExpertID) SystemPromptExclusions() []string {
	if def, ok := expertTable[e]; ok {
		return def.exclusions
	}
	return nil
}

// Score computes sigmoid(pos_hits - neg_hits) for the given task text.
func (e ExpertID) Score(taskText string) float64 {
	lower := toLowerASCII(taskText)
	pos := countHits(lower, e.Keywords())
	neg := countHits(lower, e.NegativeKeywords())
	return sigmoid(float64(pos - neg))
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func countHits(lowerText string, terms []string) int {
	hits := 0
	for _, term := range terms {
		if containsSubstring(lowerText, toLowerASCII(term)) {
			hits++
		}
	}
	return hits
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func containsSubstring(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	n := len(needle)
	for i := 0; i+n <= len(haystack); i++ {
		if haystack[i:i+n] == needle {
			return true
		}
	}
	return false
}

// TopKExperts returns the K highest-scoring experts for the given task
// text, scored deterministically via Score. Ties break by taxonomy order
// (AllExperts order) to keep routing deterministic.
func TopKExperts(taskText string, k int) []ExpertID {
	all := AllExperts()
	type scored struct {
		id    ExpertID
		score float64
	}
	scores := make([]scored, len(all))
	for i, id := range all {
		scores[i] = scored{id, id.Score(taskText)}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})
	if k > len(scores) {
		k = len(scores)
	}
	if k < 0 {
		k = 0
	}
	out := make([]ExpertID, k)
	for i := 0; i < k; i++ {
		out[i] = scores[i].id
	}
	return out
}
