// rules.go - Regeln von Klassifikation zu Parametern
//
// Enthaelt:
// - Downstream-Funktionen (diffusion_pipe, scheduler, ...)
// - Rules: Parameter pro Familie und Funktion
// - DefaultRules: Standard-Regeln fuer den eingebetteten Katalog
// - Apply: Familien-Regeln, Praezision, Offload und Widget-Eingaben
package tuner

import (
	"maps"

	"github.com/mgua/sdbx/classify"
	"github.com/mgua/sdbx/metadata"
)

// Funktionen, fuer die Parameter erzeugt werden
const (
	FunctionDiffusionPipe = "diffusion_pipe"
	FunctionScheduler     = "scheduler"
	FunctionVAEDecode     = "vae_decode"
	FunctionTextEncoder   = "text_encoder"
	FunctionLLMLoader     = "llm_loader"
)

// Schwellwerte fuer die Offload-Strategie
const (
	sequentialOffloadSize = 12 << 30
	modelOffloadSize      = 6 << 30
)

// Rules ordnet einem Familien-Label Parameter pro Downstream-Funktion zu
type Rules map[string]TunedParameters

// DefaultRules gibt die Standard-Regeln zurueck
func DefaultRules() Rules {
	flowMatch := Parameters{"name": "FlowMatchEulerDiscreteScheduler", "shift": 3.0}

	return Rules{
		"auraflow": {
			FunctionDiffusionPipe: {"pipeline": "AuraFlowPipeline", "num_inference_steps": 50},
			FunctionScheduler:     flowMatch,
			FunctionTextEncoder:   {"architecture": "umt5"},
		},
		"clip": {
			FunctionTextEncoder: {"architecture": "clip", "clip_skip": 2},
		},
		"flux": {
			FunctionDiffusionPipe: {"pipeline": "FluxPipeline", "num_inference_steps": 28, "guidance_scale": 3.5},
			FunctionScheduler:     flowMatch,
			FunctionTextEncoder:   {"architecture": "t5", "max_sequence_length": 512},
			FunctionVAEDecode:     {"latent_channels": 16},
		},
		"hunyuan": {
			FunctionDiffusionPipe: {"pipeline": "HunyuanDiTPipeline", "num_inference_steps": 50},
			FunctionScheduler:     {"name": "DDPMScheduler"},
			FunctionTextEncoder:   {"architecture": "mt5"},
		},
		"llama": {
			FunctionLLMLoader: {"backend": "llama.cpp", "n_gpu_layers": -1, "flash_attn": true},
		},
		"lora": {
			FunctionDiffusionPipe: {"lora": true, "lora_scale": 1.0},
		},
		"pixart": {
			FunctionDiffusionPipe: {"pipeline": "PixArtSigmaPipeline", "num_inference_steps": 20},
			FunctionScheduler:     {"name": "DPMSolverMultistepScheduler"},
			FunctionTextEncoder:   {"architecture": "t5", "max_sequence_length": 300},
		},
		"sd1": {
			FunctionDiffusionPipe: {"pipeline": "StableDiffusionPipeline", "num_inference_steps": 25, "pcm": true},
			FunctionScheduler:     {"name": "EulerDiscreteScheduler", "timestep_spacing": "trailing"},
			FunctionTextEncoder:   {"architecture": "clip", "clip_skip": 1},
		},
		"sd2": {
			FunctionDiffusionPipe: {"pipeline": "StableDiffusionPipeline", "num_inference_steps": 25},
			FunctionScheduler:     {"name": "EulerDiscreteScheduler", "prediction_type": "v_prediction"},
			FunctionTextEncoder:   {"architecture": "open_clip"},
		},
		"sd3": {
			FunctionDiffusionPipe: {"pipeline": "StableDiffusion3Pipeline", "num_inference_steps": 28, "guidance_scale": 7.0},
			FunctionScheduler:     flowMatch,
			FunctionTextEncoder:   {"architecture": "t5", "max_sequence_length": 256},
			FunctionVAEDecode:     {"latent_channels": 16},
		},
		"sdxl": {
			FunctionDiffusionPipe: {"pipeline": "StableDiffusionXLPipeline", "num_inference_steps": 30, "pcm": true, "ays": true},
			FunctionScheduler:     {"name": "EulerDiscreteScheduler", "timestep_spacing": "trailing"},
			FunctionTextEncoder:   {"architecture": "clip", "clip_skip": 2},
			FunctionVAEDecode:     {"force_upcast": true},
		},
		"t5": {
			FunctionTextEncoder: {"architecture": "t5"},
		},
		"vae": {
			FunctionVAEDecode: {"tiling": true, "slicing": true},
		},
	}
}

// precision leitet die Praezision aus dem dtype ab
func precision(dtype string) (Parameters, bool) {
	switch dtype {
	case "F16":
		return Parameters{"torch_dtype": "float16", "variant": "fp16"}, true
	case "BF16":
		return Parameters{"torch_dtype": "bfloat16"}, true
	case "F32":
		return Parameters{"torch_dtype": "float32"}, true
	default:
		return nil, false
	}
}

// offload leitet die Offload-Strategie aus der Dateigroesse ab
func offload(size int64) string {
	switch {
	case size >= sequentialOffloadSize:
		return "sequential"
	case size >= modelOffloadSize:
		return "model"
	default:
		return "none"
	}
}

// Apply erzeugt die Parameter fuer alle Downstream-Funktionen.
//
// Die Regeln der besten Familien werden in Label-Reihenfolge zusammengefuehrt,
// spaetere gewinnen. Danach kommen Praezision und Offload dazu, zuletzt
// ueberschreiben Widget-Eingaben gleichnamige Parameter.
func (r Rules) Apply(tag *metadata.ModelTag, result *classify.Result, widgets map[string]any) TunedParameters {
	tp := make(TunedParameters)
	for _, label := range result.Best {
		for fn, params := range r[label] {
			if tp[fn] == nil {
				tp[fn] = make(Parameters, len(params))
			}
			maps.Copy(tp[fn], params)
		}
	}

	if p, ok := precision(tag.Dtype); ok {
		for _, fn := range []string{FunctionDiffusionPipe, FunctionTextEncoder, FunctionVAEDecode, FunctionLLMLoader} {
			if tp[fn] != nil {
				maps.Copy(tp[fn], p)
			}
		}
	}

	for _, fn := range []string{FunctionDiffusionPipe, FunctionLLMLoader} {
		if tp[fn] != nil {
			tp[fn]["offload"] = offload(tag.SizeBytes)
		}
	}

	for _, params := range tp {
		for k, v := range widgets {
			if _, ok := params[k]; ok {
				params[k] = v
			}
		}
	}

	return tp
}
