package reducer

// Every script receives argv = [in.npy, out.npy, params-json] and must write
// an (n_samples, 2) float64 array to out.npy.

const scriptPrelude = `import json, sys
import numpy as np
X = np.load(sys.argv[1])
params = json.loads(sys.argv[3])
`

const scriptEpilogue = `
np.save(sys.argv[2], np.ascontiguousarray(emb, dtype=np.float64))
`

var trimapScript = scriptPrelude + `from trimap import TRIMAP
emb = TRIMAP(**params).fit_transform(X)` + scriptEpilogue

var pacmapScript = scriptPrelude + `from pacmap import PaCMAP
emb = PaCMAP(**params).fit_transform(X)` + scriptEpilogue

// scikit-learn 1.5 renamed n_iter to max_iter.
var tsneScript = scriptPrelude + `import inspect
from sklearn.manifold import TSNE
if "n_iter" in params and "max_iter" in inspect.signature(TSNE).parameters:
    params["max_iter"] = params.pop("n_iter")
emb = TSNE(**params).fit_transform(X)` + scriptEpilogue

var umapScript = scriptPrelude + `from umap import UMAP
emb = UMAP(**params).fit_transform(X)` + scriptEpilogue
