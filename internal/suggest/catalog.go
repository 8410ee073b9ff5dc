package suggest

import (
	"sort"
	"strings"

	"github.com/datenai/datalab/internal/domain"
)

// Analysis paths a client can ask suggestions for
const (
	PathAnalysis    = "analysis"
	PathDataScience = "datascience"
)

// analysisTasks is the curated catalog for the descriptive/statistical path
var analysisTasks = []domain.TaskSuggestion{
	{
		ID:            "data_overview",
		Title:         "Dataset Overview & Summary Statistics",
		Description:   "Get comprehensive statistics, data types, missing values, and basic info about your dataset",
		Category:      domain.CategoryEDA,
		Priority:      "high",
		EstimatedTime: "1-2 min",
	},
	{
		ID:            "missing_value_analysis",
		Title:         "Missing Value Analysis",
		Description:   "Identify and visualize missing values across all columns with heatmaps and bar charts",
		Category:      domain.CategoryCleaning,
		Priority:      "high",
		EstimatedTime: "1-2 min",
	},
	{
		ID:            "correlation_analysis",
		Title:         "Correlation Analysis",
		Description:   "Analyze relationships between numerical features with correlation matrix and heatmap",
		Category:      domain.CategoryEDA,
		Priority:      "high",
		EstimatedTime: "2-3 min",
	},
	{
		ID:            "distribution_plots",
		Title:         "Distribution Analysis",
		Description:   "Visualize distributions of numerical features with histograms and density plots",
		Category:      domain.CategoryVisualization,
		Priority:      "high",
		EstimatedTime: "2-3 min",
	},
	{
		ID:            "categorical_analysis",
		Title:         "Categorical Variable Analysis",
		Description:   "Analyze categorical features with value counts, bar charts, and pie charts",
		Category:      domain.CategoryVisualization,
		Priority:      "medium",
		EstimatedTime: "2-3 min",
	},
	{
		ID:            "outlier_detection",
		Title:         "Outlier Detection",
		Description:   "Identify outliers using box plots, IQR method, and statistical analysis",
		Category:      domain.CategoryEDA,
		Priority:      "medium",
		EstimatedTime: "2-3 min",
	},
	{
		ID:            "time_series_analysis",
		Title:         "Time Series Analysis",
		Description:   "Analyze temporal patterns, trends, and seasonality in time-series data",
		Category:      domain.CategoryVisualization,
		Priority:      "medium",
		EstimatedTime: "3-4 min",
	},
	{
		ID:            "pairplot_analysis",
		Title:         "Feature Pair Plot Analysis",
		Description:   "Visualize pairwise relationships between multiple features",
		Category:      domain.CategoryVisualization,
		Priority:      "low",
		EstimatedTime: "3-5 min",
	},
	{
		ID:            "data_quality_report",
		Title:         "Data Quality Report",
		Description:   "Comprehensive data quality assessment including duplicates, inconsistencies, and validity",
		Category:      domain.CategoryCleaning,
		Priority:      "high",
		EstimatedTime: "2-3 min",
	},
	{
		ID:            "statistical_tests",
		Title:         "Statistical Hypothesis Testing",
		Description:   "Perform statistical tests like t-tests, chi-square, ANOVA for data validation",
		Category:      domain.CategoryStatisticalTesting,
		Priority:      "low",
		EstimatedTime: "3-4 min",
	},
}

// datascienceTasks is the curated catalog for the ML/modeling path
var datascienceTasks = []domain.TaskSuggestion{
	{
		ID:            "data_preprocessing",
		Title:         "Data Preprocessing Pipeline",
		Description:   "Clean, encode, and prepare data for machine learning with automated preprocessing",
		Category:      domain.CategoryCleaning,
		Priority:      "high",
		EstimatedTime: "2-3 min",
	},
	{
		ID:            "feature_engineering",
		Title:         "Feature Engineering & Creation",
		Description:   "Create new features, transform existing ones, and generate interaction terms",
		Category:      domain.CategoryFeatureEngineering,
		Priority:      "high",
		EstimatedTime: "3-4 min",
	},
	{
		ID:            "feature_selection",
		Title:         "Feature Selection & Importance",
		Description:   "Identify most important features using various selection methods",
		Category:      domain.CategoryFeatureEngineering,
		Priority:      "high",
		EstimatedTime: "2-3 min",
	},
	{
		ID:            "classification_model",
		Title:         "Classification Model Building",
		Description:   "Build and evaluate classification models (Random Forest, XGBoost, etc.)",
		Category:      domain.CategoryModeling,
		Priority:      "high",
		EstimatedTime: "4-5 min",
	},
	{
		ID:            "regression_model",
		Title:         "Regression Model Building",
		Description:   "Build and evaluate regression models for continuous target prediction",
		Category:      domain.CategoryModeling,
		Priority:      "high",
		EstimatedTime: "4-5 min",
	},
	{
		ID:            "clustering_analysis",
		Title:         "Clustering & Segmentation",
		Description:   "Perform unsupervised clustering to discover patterns and groups in data",
		Category:      domain.CategoryModeling,
		Priority:      "medium",
		EstimatedTime: "3-4 min",
	},
	{
		ID:            "dimensionality_reduction",
		Title:         "Dimensionality Reduction (PCA/t-SNE)",
		Description:   "Reduce feature space while preserving variance using PCA or t-SNE",
		Category:      domain.CategoryFeatureEngineering,
		Priority:      "medium",
		EstimatedTime: "3-4 min",
	},
	{
		ID:            "model_comparison",
		Title:         "Model Comparison & Selection",
		Description:   "Compare multiple ML models and select the best performing one",
		Category:      domain.CategoryModeling,
		Priority:      "high",
		EstimatedTime: "5-6 min",
	},
	{
		ID:            "cross_validation",
		Title:         "Cross-Validation & Model Evaluation",
		Description:   "Perform k-fold cross-validation and comprehensive model evaluation",
		Category:      domain.CategoryModeling,
		Priority:      "high",
		EstimatedTime: "3-4 min",
	},
	{
		ID:            "anomaly_detection",
		Title:         "Anomaly Detection",
		Description:   "Detect anomalies and outliers using ML techniques like Isolation Forest",
		Category:      domain.CategoryModeling,
		Priority:      "medium",
		EstimatedTime: "3-4 min",
	},
	{
		ID:            "time_series_forecasting",
		Title:         "Time Series Forecasting",
		Description:   "Build forecasting models for time-series data (ARIMA, Prophet, LSTM)",
		Category:      domain.CategoryModeling,
		Priority:      "medium",
		EstimatedTime: "5-6 min",
	},
}

// tasksByPath returns the catalog for a path. An empty path falls back to
// the analysis catalog.
func tasksByPath(path string) []domain.TaskSuggestion {
	if path == PathDataScience {
		return datascienceTasks
	}
	return analysisTasks
}

// datasetTraits are the dataset characteristics relevance scoring keys on
type datasetTraits struct {
	rows           int
	cols           int
	numeric        int
	categorical    int
	hasDatetime    bool
	hasMissing     bool
	missingPercent float64
}

func traitsOf(schema domain.DatasetSchema) datasetTraits {
	t := datasetTraits{}
	if len(schema.Shape) == 2 {
		t.rows, t.cols = schema.Shape[0], schema.Shape[1]
	}
	for _, dtype := range schema.Dtypes {
		switch {
		case strings.Contains(dtype, "int") || strings.Contains(dtype, "float"):
			t.numeric++
		case strings.Contains(dtype, "object") || strings.Contains(dtype, "category"):
			t.categorical++
		}
		if strings.Contains(dtype, "datetime") {
			t.hasDatetime = true
		}
	}
	total := 0
	for _, n := range schema.NullCounts {
		total += n
	}
	t.hasMissing = total > 0
	if cells := t.rows * t.cols; cells > 0 {
		t.missingPercent = float64(total) / float64(cells)
	}
	return t
}

// relevance scores how well a catalog task fits the dataset, 0 to 1
func relevance(taskID string, t datasetTraits) float64 {
	score := 0.5

	switch taskID {
	case "data_overview", "data_quality_report", "data_preprocessing":
		score += 0.4
	case "missing_value_analysis":
		if t.hasMissing {
			score += 0.3 + t.missingPercent*0.2
		}
	case "correlation_analysis", "pairplot_analysis":
		if t.numeric >= 2 {
			score += 0.3
		}
	case "distribution_plots", "outlier_detection":
		if t.numeric >= 1 {
			score += 0.25
		}
	case "categorical_analysis":
		if t.categorical >= 1 {
			score += 0.3
		}
	case "time_series_analysis", "time_series_forecasting":
		if t.hasDatetime {
			score += 0.4
		}
	case "classification_model", "regression_model":
		if t.rows >= 100 {
			score += 0.2
			if t.cols >= 3 {
				score += 0.2
			}
		}
	case "clustering_analysis":
		if t.numeric >= 2 && t.rows >= 50 {
			score += 0.3
		}
	case "feature_engineering", "feature_selection":
		if t.cols >= 3 {
			score += 0.25
		}
	case "dimensionality_reduction":
		if t.cols >= 5 {
			score += 0.3
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// relevantTasks ranks the path's catalog against the dataset and returns
// the top max tasks
func relevantTasks(path string, schema domain.DatasetSchema, max int) []domain.TaskSuggestion {
	tasks := tasksByPath(path)
	traits := traitsOf(schema)

	type scored struct {
		task  domain.TaskSuggestion
		score float64
	}
	ranked := make([]scored, 0, len(tasks))
	for _, task := range tasks {
		ranked = append(ranked, scored{task: task, score: relevance(task.ID, traits)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > max {
		ranked = ranked[:max]
	}
	out := make([]domain.TaskSuggestion, len(ranked))
	for i, r := range ranked {
		out[i] = r.task
	}
	return out
}
