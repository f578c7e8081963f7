// Package artifacts reads trained model artifacts from a models directory
//
// An artifact is one JSON or YAML document per district:
//
//	{
//	  "family": "additive" | "autoregressive",
//	  "metadata": {
//	    "model_name": "...",
//	    "district_id": 3,
//	    "last_train_datetime": "2024-06-30 23:00:00",
//	    "best_params": {"regressor_names": [...], "exog_vars": [...]}
//	  },
//	  "model": { family specific parameters }
//	}
//
// An empty family means autoregressive
package artifacts
