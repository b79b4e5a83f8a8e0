package search

// Academic synonym dictionary for query expansion.
//
// Maps research vocabulary to equivalent terminology so a secondary-tier
// variant can bridge the gap between how the caller phrases a topic and
// how the literature indexes it (e.g. "machine learning" papers tagged
// under "statistical learning"). Keys are lowercase; multi-word keys are
// matched before their constituent words.
//
// Design principles:
//  1. Map caller vocabulary → indexing vocabulary (not vice versa)
//  2. Prefer established field terminology over colloquialisms
//  3. Keep lists ordered most-common-first (maxVariants caps per tier)

// AcademicSynonyms maps domain terms to terminology substitutes.
var AcademicSynonyms = map[string][]string{
	// Machine learning and AI
	"machine learning":        {"statistical learning", "deep learning", "supervised learning"},
	"deep learning":           {"neural networks", "machine learning", "representation learning"},
	"neural network":          {"deep learning", "artificial neural network", "connectionist model"},
	"neural networks":         {"deep learning", "artificial neural networks", "connectionist models"},
	"artificial intelligence": {"machine intelligence", "AI", "computational intelligence"},
	"reinforcement learning":  {"sequential decision making", "markov decision process", "policy optimization"},
	"federated learning":      {"distributed learning", "collaborative learning", "decentralized training"},
	"transfer learning":       {"domain adaptation", "knowledge transfer", "fine-tuning"},
	"natural language processing": {"computational linguistics", "text mining", "language modeling"},
	"computer vision":         {"image recognition", "visual recognition", "image analysis"},
	"large language model":    {"foundation model", "pretrained language model", "transformer model"},
	"large language models":   {"foundation models", "pretrained language models", "transformer models"},

	// Information retrieval
	"information retrieval": {"document retrieval", "text retrieval", "search"},
	"search engine":         {"information retrieval system", "retrieval engine", "query processing"},
	"ranking":               {"learning to rank", "relevance ranking", "result ordering"},
	"recommendation":        {"recommender system", "collaborative filtering", "personalization"},
	"query expansion":       {"query reformulation", "query rewriting", "relevance feedback"},

	// Medicine and biology
	"cancer":         {"neoplasm", "carcinoma", "tumor"},
	"tumor":          {"neoplasm", "cancer", "malignancy"},
	"heart attack":   {"myocardial infarction", "acute coronary syndrome", "cardiac event"},
	"stroke":         {"cerebrovascular accident", "cerebral infarction", "brain ischemia"},
	"diabetes":       {"diabetes mellitus", "hyperglycemia", "insulin resistance"},
	"hypertension":   {"high blood pressure", "elevated blood pressure", "arterial hypertension"},
	"obesity":        {"adiposity", "overweight", "metabolic syndrome"},
	"gene":           {"genetic locus", "allele", "genomic region"},
	"drug":           {"pharmaceutical", "therapeutic agent", "medication"},
	"vaccine":        {"immunization", "vaccination", "inoculation"},
	"clinical trial": {"randomized controlled trial", "clinical study", "intervention study"},
	"treatment":      {"therapy", "intervention", "therapeutic approach"},

	// Climate and environment
	"climate change":   {"global warming", "climate variability", "anthropogenic warming"},
	"global warming":   {"climate change", "temperature rise", "greenhouse effect"},
	"renewable energy": {"sustainable energy", "clean energy", "alternative energy"},
	"carbon emissions": {"greenhouse gas emissions", "CO2 emissions", "carbon footprint"},
	"biodiversity":     {"species diversity", "ecological diversity", "species richness"},

	// Social science and economics
	"inequality":    {"disparity", "socioeconomic inequality", "income distribution"},
	"poverty":       {"economic deprivation", "low income", "socioeconomic disadvantage"},
	"education":     {"pedagogy", "learning outcomes", "instruction"},
	"migration":     {"human mobility", "immigration", "population movement"},
	"unemployment":  {"joblessness", "labor market", "employment rate"},
	"mental health": {"psychological wellbeing", "psychiatric disorder", "mental illness"},
	"depression":    {"major depressive disorder", "depressive symptoms", "mood disorder"},
	"anxiety":       {"anxiety disorder", "generalized anxiety", "psychological distress"},

	// Physics and materials
	"quantum computing":  {"quantum computation", "quantum information", "quantum algorithms"},
	"superconductivity":  {"superconductor", "zero resistance", "cooper pairs"},
	"nanotechnology":     {"nanomaterials", "nanoscale engineering", "nanostructures"},
	"solar cell":         {"photovoltaic", "solar energy conversion", "photovoltaic cell"},
	"battery":            {"energy storage", "electrochemical cell", "lithium-ion"},

	// Methods vocabulary
	"meta-analysis":    {"systematic review", "pooled analysis", "evidence synthesis"},
	"simulation":       {"computational model", "numerical simulation", "modeling"},
	"causal inference": {"causality", "causal effect", "counterfactual analysis"},
	"optimization":     {"mathematical optimization", "optimisation", "objective minimization"},
	"privacy":          {"data privacy", "differential privacy", "confidentiality"},
	"security":         {"cybersecurity", "information security", "threat detection"},
}

// Translations maps English domain terms to the spellings and loanwords
// under which non-English literature is indexed. Used alongside synonym
// substitution for secondary variants.
var Translations = map[string][]string{
	"optimization":  {"optimisation"},
	"behavior":      {"behaviour"},
	"tumor":         {"tumour"},
	"modeling":      {"modelling"},
	"analyzing":     {"analysing"},
	"color":         {"colour"},
	"anesthesia":    {"anaesthesia"},
	"pediatric":     {"paediatric"},
	"hematology":    {"haematology"},
	"aging":         {"ageing"},
	"catalog":       {"catalogue"},
	"defense":       {"defence"},
	"esophagus":     {"oesophagus"},
	"gynecology":    {"gynaecology"},
	"orthopedic":    {"orthopaedic"},
}

// modifierTerms are qualifier words dropped when broadening a query to
// its head concepts for the tertiary tier. A query made only of
// modifiers and stopwords broadens to nothing.
var modifierTerms = map[string]bool{
	"novel": true, "new": true, "recent": true, "modern": true,
	"efficient": true, "effective": true, "robust": true, "scalable": true,
	"improved": true, "advanced": true, "state-of-the-art": true,
	"lightweight": true, "fast": true, "accurate": true, "optimal": true,
	"comprehensive": true, "systematic": true, "empirical": true,
	"preliminary": true, "experimental": true, "theoretical": true,
	"practical": true, "real-world": true, "large-scale": true,
	"small": true, "large": true, "high": true, "low": true,
}

// queryStopwords never count as head concepts.
var queryStopwords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "in": true,
	"on": true, "for": true, "with": true, "and": true, "or": true,
	"to": true, "via": true, "using": true, "based": true, "towards": true,
	"toward": true, "from": true, "by": true, "at": true, "is": true,
	"are": true, "its": true, "their": true, "into": true,
	"approach": true, "approaches": true, "method": true, "methods": true,
	"study": true, "studies": true, "analysis": true, "review": true,
	"survey": true, "overview": true, "application": true, "applications": true,
}
